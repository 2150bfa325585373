package valuation

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// Valuer runs the discounted cash flow model
// ⭐ SSOT: DCF 가치평가는 여기서만
type Valuer struct {
	logger *logger.Logger
}

// NewValuer creates a new DCF valuer
func NewValuer(log *logger.Logger) *Valuer {
	return &Valuer{
		logger: log,
	}
}

// Value computes intrinsic value per share from the statements
// 데이터 부족은 Available=false 결과로, 계약 위반(잘못된 시계열)만 error로 반환
func (v *Valuer) Value(in contracts.ValuationInput, cfg engineconfig.Valuation) (*contracts.ValuationResult, error) {
	if err := in.Statements.Validate(); err != nil {
		return nil, fmt.Errorf("dcf input: %w", err)
	}

	// 금융업: FCFF 모델 무의미
	if sector, ok := financialSector(in.Sector, cfg.FinancialSectors); ok {
		res := contracts.UnavailableValuation(contracts.KindNotApplicable,
			fmt.Sprintf("DCF not applicable to financial-services sector (%q); use P/B or residual income", sector))
		res.SectorSkip = true
		return res, nil
	}

	history := freeCashFlows(in.Statements)
	if len(history) < cfg.MinFCFYears {
		return contracts.UnavailableValuation(contracts.KindInsufficientData,
			fmt.Sprintf("not enough FCF history (need >= %d years, have %d)", cfg.MinFCFYears, len(history))), nil
	}

	capexRatio, peak := peakCapex(in.Statements, cfg.PeakCapexRatio)

	growth, ok := cagr(fcfValues(history))
	if !ok {
		growth, ok = cagr(in.Statements.Get(contracts.StatementPnL, contracts.MetricSales).Values())
	}
	if !ok {
		res := contracts.UnavailableValuation(contracts.KindInsufficientData, "insufficient data to estimate growth rate")
		res.CapexOCFRatio, res.PeakCapex = capexRatio, peak
		return res, nil
	}
	growth = clamp(growth, cfg.MinGrowthRate, cfg.MaxGrowthRate)
	tg := cfg.TerminalGrowthRate

	rate, ok := computeWACC(in.Statements, in.Beta, cfg)
	if !ok {
		res := contracts.UnavailableValuation(contracts.KindInsufficientData, "WACC could not be computed (beta not available)")
		res.CapexOCFRatio, res.PeakCapex = capexRatio, peak
		return res, nil
	}

	base, ok := baseFCF(history, cfg.TrailingFCFYears)
	if !ok {
		res := contracts.UnavailableValuation(contracts.KindNumericDegeneracy,
			fmt.Sprintf("non-positive FCF (latest %.2f, trailing mean %.2f)", history[len(history)-1].FCF, base))
		res.LatestFCF = base
		res.CapexOCFRatio, res.PeakCapex = capexRatio, peak
		return res, nil
	}

	shares, ok := sharesOutstanding(in)
	if !ok {
		res := contracts.UnavailableValuation(contracts.KindInsufficientData, "cannot determine shares outstanding")
		res.LatestFCF = base
		return res, nil
	}

	n := cfg.ProjectionYears
	p := project(base, growth, tg, rate.WACC, n)
	debt := netDebt(in.Statements)
	equity := p.EV - debt
	intrinsic := equity / shares

	res := &contracts.ValuationResult{
		Available:         true,
		IntrinsicValue:    intrinsic,
		CurrentPrice:      in.CurrentPrice,
		WACC:              rate.WACC,
		WACCFloored:       rate.Floored,
		CostOfEquity:      rate.CostOfEquity,
		CostOfDebt:        rate.CostOfDebt,
		TaxRate:           rate.TaxRate,
		TaxRateDerived:    rate.TaxRateDerived,
		GrowthRate:        growth,
		TerminalGrowth:    tg,
		LatestFCF:         base,
		ProjectedFCF:      p.FCF,
		PVOfFCF:           p.PVOfFCF,
		TerminalValue:     p.TerminalValue,
		PVOfTerminal:      p.PVOfTerminal,
		EnterpriseValue:   p.EV,
		NetDebt:           debt,
		EquityValue:       equity,
		SharesOutstanding: shares,
		CapexOCFRatio:     capexRatio,
		PeakCapex:         peak,
	}

	if in.CurrentPrice > 0 {
		res.UpsidePct = contracts.Float((intrinsic - in.CurrentPrice) / in.CurrentPrice * 100)
		applyGuardrail(res, in.CurrentPrice, cfg.EVMismatchThresholdPct)
	}

	res.Sensitivity = sensitivity(base, growth, tg, rate.WACC, debt, shares, n, cfg.Sensitivity)

	v.logger.WithFields(map[string]interface{}{
		"wacc":        rate.WACC,
		"floored":     rate.Floored,
		"growth":      growth,
		"base_fcf":    base,
		"ev":          p.EV,
		"intrinsic":   intrinsic,
		"ev_mismatch": res.EVMismatch,
	}).Debug("Calculated DCF valuation")

	return res, nil
}

// applyGuardrail compares DCF EV with market-implied EV
// 시장 EV ≤ 0 이면 비교 불가: delta nil, mismatch false
func applyGuardrail(res *contracts.ValuationResult, price float64, thresholdPct float64) {
	marketCap := price * res.SharesOutstanding
	marketEV := marketCap + res.NetDebt
	res.MarketCap = contracts.Float(marketCap)
	res.MarketEV = contracts.Float(marketEV)
	if marketEV <= 0 {
		return
	}

	delta := math.Abs(res.EnterpriseValue-marketEV) / marketEV * 100
	res.EVDeltaPct = contracts.Float(delta)
	res.EVMismatch = delta > thresholdPct
}

// peakCapex flags a structurally depressed FCF (|CapEx| / OCF above ratio)
// 최신 OCF와 최신 CapEx를 각각 사용 (같은 기간일 필요 없음)
func peakCapex(s contracts.Statements, ratio float64) (*float64, bool) {
	ocf, okO := s.Latest(contracts.StatementCashFlow, contracts.MetricOperatingCF)
	capex, okC := capexSeries(s).Latest()
	if !okO || !okC || ocf <= 0 {
		return nil, false
	}
	r := math.Abs(capex) / ocf
	return contracts.Float(r), r > ratio
}

func netDebt(s contracts.Statements) float64 {
	borrowings, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricBorrowings)
	cash, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricCash)
	return borrowings - cash
}

// sharesOutstanding prefers the ingested count, then the balance sheet line, then PAT / EPS
func sharesOutstanding(in contracts.ValuationInput) (float64, bool) {
	if in.SharesOutstanding > 0 {
		return in.SharesOutstanding, true
	}
	if v, ok := in.Statements.Latest(contracts.StatementBalanceSheet, contracts.MetricSharesOutstand); ok && v > 0 {
		return v, true
	}
	pat, okP := in.Statements.Latest(contracts.StatementPnL, contracts.MetricNetProfit)
	eps, okE := in.Statements.Latest(contracts.StatementPnL, contracts.MetricEPS)
	if okP && okE && eps > 0 && pat > 0 {
		return pat / eps, true
	}
	return 0, false
}

func financialSector(sector string, sectors []string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(sector))
	if s == "" {
		return "", false
	}
	for _, fs := range sectors {
		if strings.Contains(s, strings.ToLower(fs)) {
			return sector, true
		}
	}
	return "", false
}
