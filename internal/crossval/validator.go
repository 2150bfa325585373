package crossval

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

// Validator reconciles scraped figures with an authoritative filing
// ⭐ SSOT: 신뢰도 점수 계산은 여기서만
type Validator struct {
	logger *logger.Logger
}

// NewValidator creates a new cross-validator
func NewValidator(log *logger.Logger) *Validator {
	return &Validator{
		logger: log,
	}
}

// Validate runs reconciliation, footnote and auditor scans and scores trust
// reference == nil 이면 Available=false
func (v *Validator) Validate(
	source SourceFigures,
	reference *contracts.ReferenceFigures,
	footnotes []contracts.Footnote,
	auditor []contracts.AuditorObservation,
	cfg engineconfig.CrossValidation,
) *contracts.TrustScoreResult {
	if reference == nil {
		return contracts.UnavailableTrust("reference figures not available for validation")
	}

	// 고정 순서: revenue, net profit, EPS, operating CF
	checks := []contracts.ValidationCheck{
		Reconcile(contracts.MetricSales, source.Revenue, reference.Revenue, cfg),
		Reconcile(contracts.MetricNetProfit, source.NetProfit, reference.NetProfit, cfg),
		Reconcile(contracts.MetricEPS, source.EPS, reference.EPS, cfg),
		Reconcile(contracts.MetricOperatingCF, source.OperatingCF, reference.OperatingCF, cfg),
	}

	res := &contracts.TrustScoreResult{
		Available:     true,
		Checks:        checks,
		Summary:       summarize(checks),
		FootnoteFlags: ScanFootnotes(footnotes, cfg.FootnoteScanChars),
		AuditorFlags:  ClassifyAuditor(auditor),
	}
	res.ContingentFlag = contingentFlag(reference.ContingentLiabilities, source.TotalAssets, cfg)

	if res.Summary.Evaluable == 0 {
		res.Label = contracts.TrustLabelInsufficient
		v.logger.Debug("No evaluable reconciliation checks")
		return res
	}

	raw := (float64(res.Summary.Matched) + 0.5*float64(res.Summary.Partial)) / float64(res.Summary.Evaluable) * 100
	res.Penalty = auditorPenalty(res.AuditorFlags, cfg)
	score := math.Round(math.Max(0, raw-res.Penalty)*10) / 10
	res.TrustScore = contracts.Float(score)
	res.Label = trustLabel(score, cfg)

	v.logger.WithFields(map[string]interface{}{
		"matched":   res.Summary.Matched,
		"partial":   res.Summary.Partial,
		"mismatch":  res.Summary.Mismatch,
		"skipped":   res.Summary.Skipped,
		"penalty":   res.Penalty,
		"score":     score,
		"footnotes": len(res.FootnoteFlags),
	}).Debug("Calculated trust score")

	return res
}

func summarize(checks []contracts.ValidationCheck) contracts.CheckSummary {
	s := contracts.CheckSummary{Total: len(checks)}
	for _, c := range checks {
		switch c.Status {
		case contracts.StatusMatch:
			s.Matched++
		case contracts.StatusPartial:
			s.Partial++
		case contracts.StatusMismatch:
			s.Mismatch++
		case contracts.StatusSkipped:
			s.Skipped++
		}
	}
	s.Evaluable = s.Total - s.Skipped
	return s
}

// auditorPenalty = min(per_flag × HIGH 건수, cap)
func auditorPenalty(flags []contracts.RiskFlag, cfg engineconfig.CrossValidation) float64 {
	high := 0
	for _, f := range flags {
		if f.Severity == contracts.SeverityHigh {
			high++
		}
	}
	return math.Min(float64(high)*cfg.AuditorPenaltyPerFlag, cfg.AuditorPenaltyCap)
}

func trustLabel(score float64, cfg engineconfig.CrossValidation) string {
	switch {
	case score >= cfg.TrustHigh:
		return contracts.TrustLabelHigh
	case score >= cfg.TrustModerate:
		return contracts.TrustLabelModerate
	case score >= cfg.TrustLow:
		return contracts.TrustLabelLow
	default:
		return contracts.TrustLabelUnreliable
	}
}

// contingentFlag rates the largest contingent liability against total assets
func contingentFlag(amount, totalAssets *float64, cfg engineconfig.CrossValidation) *contracts.RiskFlag {
	if amount == nil {
		return nil
	}

	flag := &contracts.RiskFlag{
		Category: CategoryContingent,
		Severity: contracts.SeverityLow,
		Numbers:  []float64{*amount},
	}
	if totalAssets == nil || *totalAssets <= 0 || *amount <= 0 {
		flag.Impact = "could not quantify contingent liabilities"
		return flag
	}

	pct := *amount / *totalAssets * 100
	switch {
	case pct > cfg.ContingentHighPct:
		flag.Severity = contracts.SeverityHigh
		flag.Impact = fmt.Sprintf("largest contingent liability %.0f (%.1f%% of total assets), material", *amount, pct)
	case pct > cfg.ContingentMediumPct:
		flag.Severity = contracts.SeverityMedium
		flag.Impact = fmt.Sprintf("largest contingent liability %.0f (%.1f%% of total assets)", *amount, pct)
	default:
		flag.Impact = fmt.Sprintf("largest contingent liability %.0f (%.1f%% of total assets), not material", *amount, pct)
	}
	return flag
}
