package valuation

import (
	"math"
	"time"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// fcfPoint is one period of free cash flow history
type fcfPoint struct {
	Period time.Time
	OCF    float64
	Capex  float64 // absolute value
	FCF    float64
}

// freeCashFlows builds FCF = OCF − |CapEx| for every period where both lines exist
// CapEx 라인이 없으면 투자활동현금흐름으로 대체
func freeCashFlows(s contracts.Statements) []fcfPoint {
	ocf := s.Get(contracts.StatementCashFlow, contracts.MetricOperatingCF)
	capex := capexSeries(s)

	out := make([]fcfPoint, 0, ocf.Len())
	for _, p := range ocf.Present() {
		c, ok := capex.Lookup(p.Period)
		if !ok {
			continue
		}
		c = math.Abs(c)
		out = append(out, fcfPoint{
			Period: p.Period,
			OCF:    *p.Value,
			Capex:  c,
			FCF:    *p.Value - c,
		})
	}
	return out
}

func capexSeries(s contracts.Statements) contracts.TimeSeries {
	capex := s.Get(contracts.StatementCashFlow, contracts.MetricCapex)
	if len(capex.Present()) > 0 {
		return capex
	}
	return s.Get(contracts.StatementCashFlow, contracts.MetricInvestingCF)
}

func fcfValues(history []fcfPoint) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[i] = h.FCF
	}
	return out
}

// cagr returns the compound growth of the positive values of a series
// 양수 값이 2개 미만이면 추정 불가
func cagr(values []float64) (float64, bool) {
	pos := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			pos = append(pos, v)
		}
	}
	if len(pos) < 2 {
		return 0, false
	}
	n := float64(len(pos) - 1)
	g := math.Pow(pos[len(pos)-1]/pos[0], 1/n) - 1
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, false
	}
	return g, true
}

// baseFCF picks the FCF the projection starts from
// 최신 FCF ≤ 0 이면 최근 N년 평균 사용
func baseFCF(history []fcfPoint, trailing int) (float64, bool) {
	latest := history[len(history)-1].FCF
	if latest > 0 {
		return latest, true
	}

	start := len(history) - trailing
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, h := range history[start:] {
		sum += h.FCF
	}
	mean := sum / float64(len(history)-start)
	return mean, mean > 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
