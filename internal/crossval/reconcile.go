package crossval

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
)

// Reconcile compares one source figure against its reference
// 상태는 두 값과 허용오차만의 순수 함수 (|차이| 증가 시 MATCH → PARTIAL → MISMATCH 단조)
func Reconcile(metric string, source, reference *float64, cfg engineconfig.CrossValidation) contracts.ValidationCheck {
	check := contracts.ValidationCheck{
		Metric:         metric,
		SourceValue:    source,
		ReferenceValue: reference,
	}

	switch {
	case source == nil && reference == nil:
		check.Status = contracts.StatusSkipped
		check.Detail = "both values missing"
		return check
	case source == nil:
		check.Status = contracts.StatusSkipped
		check.Detail = "source value missing"
		return check
	case reference == nil:
		check.Status = contracts.StatusSkipped
		check.Detail = "reference value missing"
		return check
	case math.IsNaN(*source) || math.IsNaN(*reference) || math.IsInf(*source, 0) || math.IsInf(*reference, 0):
		check.Status = contracts.StatusSkipped
		check.Detail = "non-finite value"
		return check
	}

	src, ref := *source, *reference
	diff := math.Abs(src - ref)

	// 작은 값(EPS 등)은 절대 차이로 비교
	if math.Abs(ref) < cfg.AbsThreshold {
		check.AbsDiff = contracts.Float(diff)
		if diff <= cfg.AbsTolerance {
			check.Status = contracts.StatusMatch
			check.Detail = fmt.Sprintf("absolute diff %.2f (within %.2f)", diff, cfg.AbsTolerance)
		} else {
			check.Status = contracts.StatusMismatch
			check.Detail = fmt.Sprintf("absolute diff %.2f exceeds %.2f", diff, cfg.AbsTolerance)
		}
		return check
	}

	pct := diff / math.Abs(ref) * 100
	check.PctDiff = contracts.Float(pct)
	partial := cfg.PctTolerance * cfg.PartialMultiplier
	switch {
	case pct <= cfg.PctTolerance:
		check.Status = contracts.StatusMatch
		check.Detail = fmt.Sprintf("%.2f%% difference (within %.1f%% tolerance)", pct, cfg.PctTolerance)
	case pct <= partial:
		check.Status = contracts.StatusPartial
		check.Detail = fmt.Sprintf("%.2f%% difference, minor discrepancy (within %.1f%%)", pct, partial)
	default:
		check.Status = contracts.StatusMismatch
		check.Detail = fmt.Sprintf("%.2f%% difference, check for restatement or standalone vs consolidated", pct)
	}
	return check
}
