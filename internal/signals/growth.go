package signals

import (
	"fmt"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// YoY 성장률 기준 (%)
const (
	growthPositivePct   = 10.0
	revenueDecliningPct = -5.0
)

// RevenueGrowthProducer votes on year-over-year sales growth
type RevenueGrowthProducer struct {
	logger *logger.Logger
}

// NewRevenueGrowthProducer creates a new revenue growth producer
func NewRevenueGrowthProducer(log *logger.Logger) *RevenueGrowthProducer {
	return &RevenueGrowthProducer{
		logger: log,
	}
}

// Name returns the signal name
func (p *RevenueGrowthProducer) Name() string {
	return contracts.SignalRevenueGrowth
}

// Produce votes positive above 10% YoY; negative otherwise
func (p *RevenueGrowthProducer) Produce(snapshot *contracts.AnalysisSnapshot) contracts.SignalContribution {
	g, ok := yoyGrowth(snapshot.Statements.Get(contracts.StatementPnL, contracts.MetricSales))
	if !ok {
		return contracts.Missing(p.Name(), "revenue growth: fewer than two positive years")
	}

	p.logger.WithFields(map[string]interface{}{
		"code":   snapshot.Code,
		"growth": g,
	}).Debug("Calculated revenue growth signal")

	switch {
	case g > growthPositivePct:
		return contracts.Positive(p.Name(), fmt.Sprintf("Healthy revenue growth %.2f%% YoY", g))
	case g < revenueDecliningPct:
		return contracts.Negative(p.Name(), fmt.Sprintf("Revenue declining %.2f%% YoY", g))
	default:
		return contracts.Negative(p.Name(), fmt.Sprintf("Sluggish revenue growth %.2f%% YoY", g))
	}
}

// ProfitGrowthProducer votes on year-over-year net profit growth
type ProfitGrowthProducer struct {
	logger *logger.Logger
}

// NewProfitGrowthProducer creates a new profit growth producer
func NewProfitGrowthProducer(log *logger.Logger) *ProfitGrowthProducer {
	return &ProfitGrowthProducer{
		logger: log,
	}
}

// Name returns the signal name
func (p *ProfitGrowthProducer) Name() string {
	return contracts.SignalProfitGrowth
}

// Produce votes positive above 10% YoY; requires a positive prior-year profit
func (p *ProfitGrowthProducer) Produce(snapshot *contracts.AnalysisSnapshot) contracts.SignalContribution {
	g, ok := yoyGrowth(snapshot.Statements.Get(contracts.StatementPnL, contracts.MetricNetProfit))
	if !ok {
		return contracts.Missing(p.Name(), "profit growth: prior-year profit missing or non-positive")
	}

	p.logger.WithFields(map[string]interface{}{
		"code":   snapshot.Code,
		"growth": g,
	}).Debug("Calculated profit growth signal")

	if g > growthPositivePct {
		return contracts.Positive(p.Name(), fmt.Sprintf("Strong profit growth %.2f%% YoY", g))
	}
	return contracts.Negative(p.Name(), fmt.Sprintf("Weak profit growth %.2f%% YoY", g))
}

// yoyGrowth = (latest / previous − 1) × 100, previous must be positive
func yoyGrowth(ts contracts.TimeSeries) (float64, bool) {
	values := ts.LatestN(2) // newest first
	if len(values) < 2 || values[1] <= 0 {
		return 0, false
	}
	return round2((values[0]/values[1] - 1) * 100), true
}
