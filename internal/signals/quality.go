package signals

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// QualityProducer votes on ROE and leverage
// ⭐ SSOT: 퀄리티 지표 계산은 여기서만
type QualityProducer struct {
	logger *logger.Logger
}

// NewQualityProducer creates a new quality producer
func NewQualityProducer(log *logger.Logger) *QualityProducer {
	return &QualityProducer{
		logger: log,
	}
}

// QualityMetrics represents quality metrics for a stock
type QualityMetrics struct {
	ROE       float64 // Return on Equity (%)
	DebtRatio float64 // 부채비율 = borrowings / book equity (%)
}

// Name returns the signal name
func (p *QualityProducer) Name() string {
	return contracts.SignalQuality
}

// Produce computes ROE and debt ratio from the latest statements
func (p *QualityProducer) Produce(snapshot *contracts.AnalysisSnapshot) contracts.SignalContribution {
	s := snapshot.Statements
	equity, ok := bookEquity(s)
	if !ok || equity <= 0 {
		return contracts.Missing(p.Name(), "quality: non-positive book equity")
	}
	pat, ok := s.Latest(contracts.StatementPnL, contracts.MetricNetProfit)
	if !ok {
		return contracts.Missing(p.Name(), "quality: net profit unavailable")
	}

	borrowings, _ := s.Latest(contracts.StatementBalanceSheet, contracts.MetricBorrowings)
	metrics := QualityMetrics{
		ROE:       round2(pat / equity * 100),
		DebtRatio: round2(math.Max(borrowings, 0) / equity * 100),
	}
	score := p.calculateScore(metrics)

	p.logger.WithFields(map[string]interface{}{
		"code":       snapshot.Code,
		"roe":        metrics.ROE,
		"debt_ratio": metrics.DebtRatio,
		"score":      score,
	}).Debug("Calculated quality signal")

	return vote(p.Name(), score, fmt.Sprintf("Quality ROE %.1f%%, debt ratio %.0f%% (score %+.2f)",
		metrics.ROE, metrics.DebtRatio, score))
}

// calculateScore calculates quality score (-1.0 ~ 1.0)
func (p *QualityProducer) calculateScore(metrics QualityMetrics) float64 {
	// ROE: 10% = 0, 25% = 1.0, -5% = -1.0
	roeScore := clampUnit((metrics.ROE - 10) / 15)

	// 부채비율: 100% = 0, 0% = 1.0, 200% 이상 = -1.0
	debtScore := 0.0
	if metrics.DebtRatio >= 0 {
		debtScore = clampUnit((100 - metrics.DebtRatio) / 100)
	}

	// ROE: 60%, DebtRatio: 40%
	score := roeScore*0.6 + debtScore*0.4

	return math.Tanh(score * 1.5)
}
