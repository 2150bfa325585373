package signals

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// MultiplesProducer votes on PER / PBR / PSR
// ⭐ SSOT: 가치 지표(멀티플) 계산은 여기서만
type MultiplesProducer struct {
	logger *logger.Logger
}

// NewMultiplesProducer creates a new valuation multiples producer
func NewMultiplesProducer(log *logger.Logger) *MultiplesProducer {
	return &MultiplesProducer{
		logger: log,
	}
}

// ValueMetrics represents valuation multiples for a stock (0 = not computable)
type ValueMetrics struct {
	PER float64 // Price to Earnings Ratio
	PBR float64 // Price to Book Ratio
	PSR float64 // Price to Sales Ratio
}

// Name returns the signal name
func (p *MultiplesProducer) Name() string {
	return contracts.SignalMultiples
}

// Produce derives the multiples from the snapshot and votes on the smoothed score
func (p *MultiplesProducer) Produce(snapshot *contracts.AnalysisSnapshot) contracts.SignalContribution {
	metrics, ok := valueMetrics(snapshot)
	if !ok {
		return contracts.Missing(p.Name(), "valuation multiples: price or fundamentals unavailable")
	}

	score := p.calculateScore(metrics)

	p.logger.WithFields(map[string]interface{}{
		"code":  snapshot.Code,
		"per":   metrics.PER,
		"pbr":   metrics.PBR,
		"psr":   metrics.PSR,
		"score": score,
	}).Debug("Calculated value signal")

	return vote(p.Name(), score, fmt.Sprintf("Valuation multiples PER %.1f, PBR %.2f, PSR %.2f (score %+.2f)",
		metrics.PER, metrics.PBR, metrics.PSR, score))
}

// valueMetrics computes the multiples; at least one must be positive
func valueMetrics(snapshot *contracts.AnalysisSnapshot) (ValueMetrics, bool) {
	var m ValueMetrics
	price := snapshot.CurrentPrice
	if price <= 0 {
		return m, false
	}
	s := snapshot.Statements

	if eps, ok := s.Latest(contracts.StatementPnL, contracts.MetricEPS); ok && eps > 0 {
		m.PER = round2(price / eps)
	}

	if shares, ok := shareCount(snapshot); ok {
		marketCap := price * shares
		if equity, ok := bookEquity(s); ok && equity > 0 {
			m.PBR = round2(marketCap / equity)
		}
		if sales, ok := s.Latest(contracts.StatementPnL, contracts.MetricSales); ok && sales > 0 {
			m.PSR = round2(marketCap / sales)
		}
	}

	return m, m.PER > 0 || m.PBR > 0 || m.PSR > 0
}

// calculateScore calculates value score (-1.0 ~ 1.0)
// Lower multiples = higher score (value stocks)
func (p *MultiplesProducer) calculateScore(metrics ValueMetrics) float64 {
	// PER: 15 = 0, 5 이하 = 1.0, 30 이상 = -1.0
	perScore := 0.0
	if metrics.PER > 0 {
		perScore = clampUnit((15 - metrics.PER) / 15)
	}

	// PBR: 1.5 = 0
	pbrScore := 0.0
	if metrics.PBR > 0 {
		pbrScore = clampUnit((1.5 - metrics.PBR) / 1.5)
	}

	// PSR: 2.0 = 0
	psrScore := 0.0
	if metrics.PSR > 0 {
		psrScore = clampUnit((2.0 - metrics.PSR) / 2.0)
	}

	// PER: 50%, PBR: 30%, PSR: 20%
	score := perScore*0.5 + pbrScore*0.3 + psrScore*0.2

	return math.Tanh(score * 1.5)
}
