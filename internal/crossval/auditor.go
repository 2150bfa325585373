package crossval

import (
	"strings"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// auditorRule maps keywords to a severity; rules are checked highest severity first
type auditorRule struct {
	severity contracts.Severity
	keywords []string
}

var auditorRules = []auditorRule{
	{contracts.SeverityCritical, []string{"going concern", "adverse", "disclaimer"}},
	{contracts.SeverityHigh, []string{"qualifi", "except for", "material", "departure", "non-compliance", "noncompliance"}},
	{contracts.SeverityMedium, []string{"emphasis"}},
	{contracts.SeverityLow, []string{"key audit matter"}},
}

const maxObservationChars = 200

// ClassifyAuditor assigns a severity to each auditor observation
// 키워드 미매칭 시 MEDIUM, 입력 순서 유지
func ClassifyAuditor(observations []contracts.AuditorObservation) []contracts.RiskFlag {
	flags := make([]contracts.RiskFlag, 0, len(observations))
	for _, obs := range observations {
		text := strings.ToLower(obs.Type)
		if strings.TrimSpace(text) == "" {
			text = strings.ToLower(obs.Context)
		}

		severity, keyword := contracts.SeverityMedium, ""
	rules:
		for _, rule := range auditorRules {
			for _, k := range rule.keywords {
				if strings.Contains(text, k) {
					severity, keyword = rule.severity, k
					break rules
				}
			}
		}

		title := obs.Context
		if r := []rune(title); len(r) > maxObservationChars {
			title = string(r[:maxObservationChars])
		}
		flags = append(flags, contracts.RiskFlag{
			Category: CategoryAuditor,
			Severity: severity,
			Title:    title,
			Keyword:  keyword,
			Impact:   obs.Type,
			Page:     obs.Page,
		})
	}
	return flags
}
