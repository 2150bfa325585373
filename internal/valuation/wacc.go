package valuation

import (
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
)

// discountRate is the WACC breakdown
type discountRate struct {
	CostOfEquity   float64
	CostOfDebt     float64
	TaxRate        float64
	TaxRateDerived bool
	EquityWeight   float64
	DebtWeight     float64
	WACC           float64
	Floored        bool
}

// computeWACC derives WACC = wE·Ke + wD·Kd·(1−t), floored at terminal growth + margin
// β 미제공 시 계산 불가 (false)
func computeWACC(s contracts.Statements, beta contracts.BetaInfo, cfg engineconfig.Valuation) (discountRate, bool) {
	var d discountRate
	if !beta.Available || math.IsNaN(beta.Beta) || math.IsInf(beta.Beta, 0) {
		return d, false
	}

	d.TaxRate, d.TaxRateDerived = effectiveTaxRate(s, cfg.TaxRate)
	d.CostOfEquity = cfg.RiskFreeRate + beta.Beta*cfg.EquityRiskPremium

	borrowings, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricBorrowings)
	borrowings = math.Max(borrowings, 0)
	interest, hasInterest := s.Latest(contracts.StatementPnL, contracts.MetricInterest)
	switch {
	case borrowings > 0 && hasInterest && interest >= 0:
		d.CostOfDebt = interest / borrowings
	case borrowings > 0:
		d.CostOfDebt = cfg.RiskFreeRate + cfg.CreditSpread
	default:
		d.CostOfDebt = 0
	}

	equityCapital, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricEquityCapital)
	reserves, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricReserves)
	equity := equityCapital + reserves

	if equity <= 0 {
		// 자본잠식: 자기자본비용만 사용
		d.EquityWeight = 1
		d.WACC = d.CostOfEquity
	} else {
		total := equity + borrowings
		d.EquityWeight = equity / total
		d.DebtWeight = borrowings / total
		d.WACC = d.EquityWeight*d.CostOfEquity + d.DebtWeight*d.CostOfDebt*(1-d.TaxRate)
	}

	minWACC := cfg.TerminalGrowthRate + cfg.WACCSafetyMargin
	if d.WACC < minWACC {
		d.WACC = minWACC
		d.Floored = true
	}
	return d, true
}

// effectiveTaxRate averages the last three reported rates
// 1순위 tax_pct, 2순위 tax/pbt, 없으면 설정값
func effectiveTaxRate(s contracts.Statements, fallback float64) (float64, bool) {
	var rates []float64
	for _, v := range s.Get(contracts.StatementPnL, contracts.MetricTaxPct).LatestN(3) {
		rate := v
		if rate >= 1 {
			rate = v / 100 // 퍼센트 표기
		}
		if rate > 0 && rate < 0.6 {
			rates = append(rates, rate)
		}
	}
	if len(rates) > 0 {
		return mean(rates), true
	}

	pbt := s.Get(contracts.StatementPnL, contracts.MetricPBT).Present()
	tax := s.Get(contracts.StatementPnL, contracts.MetricTax)
	for i := len(pbt) - 1; i >= 0 && len(pbt)-i <= 3; i-- {
		p := *pbt[i].Value
		t, ok := tax.Lookup(pbt[i].Period)
		if !ok || p <= 0 || t < 0 {
			continue
		}
		if rate := t / p; rate > 0 && rate < 0.6 {
			rates = append(rates, rate)
		}
	}
	if len(rates) > 0 {
		return mean(rates), true
	}
	return fallback, false
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
