package contracts

import "sort"

// CheckStatus is the reconciliation outcome of one metric
type CheckStatus string

const (
	StatusMatch    CheckStatus = "MATCH"
	StatusPartial  CheckStatus = "PARTIAL"
	StatusMismatch CheckStatus = "MISMATCH"
	StatusSkipped  CheckStatus = "SKIPPED"
)

// Severity ranks risk flags
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities, LOW=1 … CRITICAL=4
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Trust labels
const (
	TrustLabelHigh         = "HIGH CONFIDENCE"
	TrustLabelModerate     = "MODERATE CONFIDENCE"
	TrustLabelLow          = "LOW CONFIDENCE"
	TrustLabelUnreliable   = "UNRELIABLE"
	TrustLabelInsufficient = "INSUFFICIENT DATA"
)

// ReferenceFigures are the authoritative figures pulled from a filing
type ReferenceFigures struct {
	FiscalYear  int      `json:"fiscal_year,omitempty"`
	Revenue     *float64 `json:"revenue"`
	NetProfit   *float64 `json:"net_profit"`
	EPS         *float64 `json:"eps"`
	OperatingCF *float64 `json:"operating_cf"`

	// Largest disclosed contingent liability, same currency unit as statements
	ContingentLiabilities *float64 `json:"contingent_liabilities,omitempty"`
}

// Footnote is one extracted note to the accounts
type Footnote struct {
	ID      string    `json:"id" validate:"required"`
	Title   string    `json:"title"`
	Text    string    `json:"text"`
	Numbers []float64 `json:"numbers,omitempty"`
	Page    int       `json:"page,omitempty"`
}

// AuditorObservation is one extracted auditor remark
type AuditorObservation struct {
	Type    string `json:"type"`
	Context string `json:"context"`
	Page    int    `json:"page,omitempty"`
}

// ValidationCheck is the reconciliation of one metric
type ValidationCheck struct {
	Metric         string      `json:"metric"`
	SourceValue    *float64    `json:"source_value"`
	ReferenceValue *float64    `json:"reference_value"`
	Status         CheckStatus `json:"status"`
	PctDiff        *float64    `json:"pct_diff"`
	AbsDiff        *float64    `json:"abs_diff,omitempty"`
	Detail         string      `json:"detail"`
}

// RiskFlag is a footnote, auditor or contingent-liability finding
type RiskFlag struct {
	Category string    `json:"category"`
	Severity Severity  `json:"severity"`
	SourceID string    `json:"source_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Keyword  string    `json:"keyword,omitempty"`
	Impact   string    `json:"impact,omitempty"`
	Page     int       `json:"page,omitempty"`
	Numbers  []float64 `json:"numbers,omitempty"`
}

// CheckSummary counts checks by status
type CheckSummary struct {
	Matched   int `json:"matched"`
	Partial   int `json:"partial"`
	Mismatch  int `json:"mismatch"`
	Skipped   int `json:"skipped"`
	Evaluable int `json:"evaluable"`
	Total     int `json:"total"`
}

// TrustScoreResult is the cross-validator output
// ⭐ SSOT: TrustScore == nil ⟺ Summary.Evaluable == 0
type TrustScoreResult struct {
	Available      bool              `json:"available"`
	Reason         string            `json:"reason,omitempty"`
	TrustScore     *float64          `json:"trust_score"`
	Label          string            `json:"label"`
	Penalty        float64           `json:"penalty"`
	Checks         []ValidationCheck `json:"checks"`
	Summary        CheckSummary      `json:"summary"`
	FootnoteFlags  []RiskFlag        `json:"footnote_flags"`
	AuditorFlags   []RiskFlag        `json:"auditor_flags"`
	ContingentFlag *RiskFlag         `json:"contingent_flag,omitempty"`
}

// UnavailableTrust builds the unavailable variant
func UnavailableTrust(reason string) *TrustScoreResult {
	return &TrustScoreResult{
		Available:     false,
		Reason:        reason,
		Label:         TrustLabelInsufficient,
		Checks:        []ValidationCheck{},
		FootnoteFlags: []RiskFlag{},
		AuditorFlags:  []RiskFlag{},
	}
}

// Score returns the trust score when one was computed
func (t *TrustScoreResult) Score() (float64, bool) {
	if t == nil || !t.Available || t.TrustScore == nil {
		return 0, false
	}
	return *t.TrustScore, true
}

// FlagsBySeverity returns every risk flag, most severe first
// 같은 severity 안에서는 footnote → auditor → contingent 순서 유지
func (t *TrustScoreResult) FlagsBySeverity() []RiskFlag {
	if t == nil {
		return nil
	}
	flags := make([]RiskFlag, 0, len(t.FootnoteFlags)+len(t.AuditorFlags)+1)
	flags = append(flags, t.FootnoteFlags...)
	flags = append(flags, t.AuditorFlags...)
	if t.ContingentFlag != nil {
		flags = append(flags, *t.ContingentFlag)
	}
	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.Rank() > flags[j].Severity.Rank()
	})
	return flags
}
