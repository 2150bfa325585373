package crossval

import (
	"strings"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// Footnote risk categories
const (
	CategoryExceptional      = "exceptional_item"
	CategoryRestatement      = "restatement"
	CategoryAccountingChange = "accounting_change"
	CategoryGoingConcern     = "going_concern"
	CategoryLegalSettlement  = "legal_settlement"
	CategoryImpairment       = "impairment"
	CategoryAuditor          = "auditor_observation"
	CategoryContingent       = "contingent_liability"
)

// footnotePattern is one entry of the footnote taxonomy
type footnotePattern struct {
	category string
	keywords []string
	severity contracts.Severity
	impact   string
}

// footnoteTaxonomy is scanned in this order; one flag per category per note
var footnoteTaxonomy = []footnotePattern{
	{
		category: CategoryExceptional,
		keywords: []string{"exceptional", "extraordinary", "one-time", "non-recurring"},
		severity: contracts.SeverityMedium,
		impact:   "may cause reported numbers to differ from normalised earnings",
	},
	{
		category: CategoryRestatement,
		keywords: []string{"restate", "restated", "prior period adjustment", "reclassif"},
		severity: contracts.SeverityHigh,
		impact:   "historical numbers may have changed; source may carry old values",
	},
	{
		category: CategoryAccountingChange,
		keywords: []string{"change in accounting policy", "change in accounting estimate", "first-time adoption", "transition"},
		severity: contracts.SeverityMedium,
		impact:   "year-over-year comparisons may not be like-for-like",
	},
	{
		category: CategoryGoingConcern,
		keywords: []string{"going concern", "ability to continue", "material uncertainty"},
		severity: contracts.SeverityCritical,
		impact:   "company viability in question",
	},
	{
		category: CategoryLegalSettlement,
		keywords: []string{"legal claim", "settlement", "litigation", "arbitration", "penalty imposed"},
		severity: contracts.SeverityMedium,
		impact:   "legal provisions may distort reported profit",
	},
	{
		category: CategoryImpairment,
		keywords: []string{"impairment", "write-off", "write-down", "provision for bad", "expected credit loss"},
		severity: contracts.SeverityMedium,
		impact:   "asset values or profit may be lower due to write-downs",
	},
}

// boilerplate notes are standard filing language, not findings
var boilerplate = []string{
	"regrouped and/or reclassified wherever necessary",
	"reclassified wherever necessary",
	"regrouped wherever necessary",
	"previous year figures have been regrouped",
	"figures have been reclassified",
	"previous year figures have been rearranged",
}

const maxFlagNumbers = 5

// ScanFootnotes flags footnotes matching the risk taxonomy
// (category, footnote id) 기준 중복 제거, 입력 순서 유지
func ScanFootnotes(footnotes []contracts.Footnote, scanChars int) []contracts.RiskFlag {
	flags := []contracts.RiskFlag{}
	seen := make(map[[2]string]bool)

	for _, fn := range footnotes {
		text := fn.Text
		if r := []rune(text); len(r) > scanChars {
			text = string(r[:scanChars])
		}
		combined := strings.ToLower(fn.Title + " " + text)

		if isBoilerplate(combined) {
			continue
		}

		for _, p := range footnoteTaxonomy {
			keyword, ok := firstMatch(combined, p.keywords)
			if !ok {
				continue
			}
			key := [2]string{p.category, fn.ID}
			if seen[key] {
				continue
			}
			seen[key] = true

			numbers := fn.Numbers
			if len(numbers) > maxFlagNumbers {
				numbers = numbers[:maxFlagNumbers]
			}
			flags = append(flags, contracts.RiskFlag{
				Category: p.category,
				Severity: p.severity,
				SourceID: fn.ID,
				Title:    fn.Title,
				Keyword:  keyword,
				Impact:   p.impact,
				Page:     fn.Page,
				Numbers:  numbers,
			})
		}
	}
	return flags
}

func isBoilerplate(text string) bool {
	_, ok := firstMatch(text, boilerplate)
	return ok
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}
