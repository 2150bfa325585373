package signals

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

const (
	cashHistoryYears      = 3
	cashFallbackThreshold = 50.0 // %
)

// CashConversionProducer votes on CFO / EBITDA against the company's own history
// ⭐ SSOT: 현금전환율 계산은 여기서만
type CashConversionProducer struct {
	logger *logger.Logger
}

// NewCashConversionProducer creates a new cash conversion producer
func NewCashConversionProducer(log *logger.Logger) *CashConversionProducer {
	return &CashConversionProducer{
		logger: log,
	}
}

// Name returns the signal name
func (p *CashConversionProducer) Name() string {
	return contracts.SignalCashConversion
}

// Produce computes the latest conversion % and compares it with mean − 1σ of
// the trailing three years (50% when fewer than three usable years)
func (p *CashConversionProducer) Produce(snapshot *contracts.AnalysisSnapshot) contracts.SignalContribution {
	s := snapshot.Statements
	cfo := s.Get(contracts.StatementCashFlow, contracts.MetricOperatingCF).Present()
	if len(cfo) == 0 || len(s.Get(contracts.StatementPnL, contracts.MetricNetProfit).Present()) == 0 {
		return contracts.Missing(p.Name(), "cash conversion: insufficient data")
	}

	// 연도별 CFO / EBITDA (%)
	history := make([]float64, 0, cashHistoryYears)
	start := len(cfo) - cashHistoryYears
	if start < 0 {
		start = 0
	}
	latest := math.NaN()
	for i := start; i < len(cfo); i++ {
		ebitda, ok := ebitdaAt(s, cfo[i])
		if !ok || ebitda <= 0 {
			if i == len(cfo)-1 {
				return contracts.Missing(p.Name(), "cash conversion: non-positive EBITDA")
			}
			continue
		}
		pct := math.Round(*cfo[i].Value/ebitda*1000) / 10
		history = append(history, pct)
		if i == len(cfo)-1 {
			latest = pct
		}
	}

	threshold := cashFallbackThreshold
	if len(history) >= cashHistoryYears {
		mean, std := meanStd(history)
		threshold = mean - std
	}

	p.logger.WithFields(map[string]interface{}{
		"code":           snapshot.Code,
		"conversion_pct": latest,
		"threshold":      threshold,
		"history":        history,
	}).Debug("Calculated cash conversion signal")

	if latest < threshold {
		return contracts.Negative(p.Name(),
			fmt.Sprintf("Poor cash conversion: CFO/EBITDA %.1f%% below %.0f%% threshold, profits may not be cash-backed", latest, threshold))
	}
	return contracts.Positive(p.Name(), fmt.Sprintf("Healthy cash conversion: CFO/EBITDA %.1f%%", latest))
}

// ebitdaAt ≈ PAT + depreciation + interest + tax for the CFO point's period
func ebitdaAt(s contracts.Statements, at contracts.Point) (float64, bool) {
	pat, ok := s.Get(contracts.StatementPnL, contracts.MetricNetProfit).Lookup(at.Period)
	if !ok {
		return 0, false
	}
	total := pat
	for _, m := range []string{contracts.MetricDepreciation, contracts.MetricInterest, contracts.MetricTax} {
		if v, ok := s.Get(contracts.StatementPnL, m).Lookup(at.Period); ok {
			total += v
		}
	}
	return total, true
}

// meanStd returns the mean and population standard deviation
func meanStd(values []float64) (float64, float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
