package signals

import (
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// 점수 → 투표 변환 밴드 (-1.0 ~ 1.0 점수 기준)
const (
	positiveBand = 0.2
	negativeBand = -0.2
)

// Builtin returns the built-in producers in their fixed thesis order:
// cash conversion, revenue growth, profit growth, valuation multiples, quality
func Builtin(log *logger.Logger) []contracts.SignalProducer {
	return []contracts.SignalProducer{
		NewCashConversionProducer(log),
		NewRevenueGrowthProducer(log),
		NewProfitGrowthProducer(log),
		NewMultiplesProducer(log),
		NewQualityProducer(log),
	}
}

// ProduceAll runs each producer in order
func ProduceAll(snapshot *contracts.AnalysisSnapshot, producers []contracts.SignalProducer) []contracts.SignalContribution {
	out := make([]contracts.SignalContribution, 0, len(producers))
	for _, p := range producers {
		out = append(out, p.Produce(snapshot))
	}
	return out
}

// vote maps a smoothed score onto a binary vote; the neutral band abstains
func vote(name string, score float64, rationale string) contracts.SignalContribution {
	switch {
	case score > positiveBand:
		return contracts.Positive(name, rationale)
	case score < negativeBand:
		return contracts.Negative(name, rationale)
	default:
		return contracts.Abstain(name, rationale)
	}
}

func clampUnit(v float64) float64 {
	if v > 1.0 {
		return 1.0
	} else if v < -1.0 {
		return -1.0
	}
	return v
}

// bookEquity = equity capital + reserves (latest)
func bookEquity(s contracts.Statements) (float64, bool) {
	capital, okC := s.Latest(contracts.StatementBalanceSheet, contracts.MetricEquityCapital)
	reserves, okR := s.Latest(contracts.StatementBalanceSheet, contracts.MetricReserves)
	if !okC && !okR {
		return 0, false
	}
	return capital + reserves, true
}

// shareCount prefers the snapshot figure, then the balance sheet
func shareCount(snapshot *contracts.AnalysisSnapshot) (float64, bool) {
	if snapshot.SharesOutstanding > 0 {
		return snapshot.SharesOutstanding, true
	}
	if v, ok := snapshot.Statements.Latest(contracts.StatementBalanceSheet, contracts.MetricSharesOutstand); ok && v > 0 {
		return v, true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
