package engineconfig

import (
	"fmt"
	"sort"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Valuation ===
	v := cfg.Valuation
	if v.ProjectionYears < 1 || v.ProjectionYears > 30 {
		return ValidationError{"valuation.projection_years", "must be in [1, 30]"}
	}
	if err := validateRateRange(v.RiskFreeRate, "valuation.risk_free_rate"); err != nil {
		return err
	}
	if err := validateRateRange(v.EquityRiskPremium, "valuation.equity_risk_premium"); err != nil {
		return err
	}
	if err := validateRateRange(v.TaxRate, "valuation.tax_rate"); err != nil {
		return err
	}
	if v.CreditSpread < 0 {
		return ValidationError{"valuation.credit_spread", "must be >= 0"}
	}
	if v.MinGrowthRate > v.MaxGrowthRate {
		return ValidationError{"valuation.min_growth_rate", "must be <= max_growth_rate"}
	}
	if v.TerminalGrowthRate < 0 || v.TerminalGrowthRate >= v.RiskFreeRate+v.EquityRiskPremium {
		return ValidationError{"valuation.terminal_growth_rate", "must be in [0, risk_free_rate+equity_risk_premium)"}
	}
	// WACC 하한 = tg + margin 이므로 margin > 0 이어야 TV 분모가 양수
	if v.WACCSafetyMargin <= 0 {
		return ValidationError{"valuation.wacc_safety_margin", "must be > 0"}
	}
	if v.MinFCFYears < 2 {
		return ValidationError{"valuation.min_fcf_years", "must be >= 2"}
	}
	if v.TrailingFCFYears < 1 {
		return ValidationError{"valuation.trailing_fcf_years", "must be >= 1"}
	}
	if v.EVMismatchThresholdPct <= 0 {
		return ValidationError{"valuation.ev_mismatch_threshold_pct", "must be > 0"}
	}
	if v.PeakCapexRatio <= 0 {
		return ValidationError{"valuation.peak_capex_ratio", "must be > 0"}
	}
	if err := validateDeltas(v.Sensitivity.WACCDeltas, "valuation.sensitivity.wacc_deltas"); err != nil {
		return err
	}
	if err := validateDeltas(v.Sensitivity.TerminalGrowthDeltas, "valuation.sensitivity.terminal_growth_deltas"); err != nil {
		return err
	}
	if v.Sensitivity.InvalidMargin <= 0 {
		return ValidationError{"valuation.sensitivity.invalid_margin", "must be > 0"}
	}

	// === CrossValidation ===
	c := cfg.CrossValidation
	if c.PctTolerance <= 0 {
		return ValidationError{"cross_validation.reconciliation_pct_tolerance", "must be > 0"}
	}
	if c.PartialMultiplier < 1 {
		return ValidationError{"cross_validation.reconciliation_partial_multiplier", "must be >= 1"}
	}
	if c.AbsThreshold < 0 || c.AbsTolerance < 0 {
		return ValidationError{"cross_validation.abs_threshold", "abs_threshold and abs_tolerance must be >= 0"}
	}
	if c.AuditorPenaltyPerFlag < 0 || c.AuditorPenaltyCap < 0 {
		return ValidationError{"cross_validation.auditor_penalty", "must be >= 0"}
	}
	if !(c.TrustHigh > c.TrustModerate && c.TrustModerate > c.TrustLow && c.TrustLow > 0 && c.TrustHigh <= 100) {
		return ValidationError{"cross_validation.trust_bands", "must satisfy 0 < low < moderate < high <= 100"}
	}
	if c.ContingentMediumPct <= 0 || c.ContingentMediumPct > c.ContingentHighPct {
		return ValidationError{"cross_validation.contingent_pct", "must satisfy 0 < medium <= high"}
	}
	if c.FootnoteScanChars <= 0 {
		return ValidationError{"cross_validation.footnote_scan_chars", "must be > 0"}
	}

	// === Synthesis ===
	s := cfg.Synthesis
	if s.SuspendThreshold < 0 || s.SuspendThreshold > 100 {
		return ValidationError{"synthesis.trust_suspend_threshold", "must be in [0, 100]"}
	}
	if !(s.HoldRatio > 0 && s.HoldRatio < s.BuyRatio && s.BuyRatio <= 1) {
		return ValidationError{"synthesis.ratios", "must satisfy 0 < hold_ratio < buy_ratio <= 1"}
	}
	if s.MediumConfidenceMin < 1 || s.MediumConfidenceMin > s.HighConfidenceMin {
		return ValidationError{"synthesis.confidence", "must satisfy 1 <= medium_confidence_min <= high_confidence_min"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 정지 기준이 LOW 밴드와 다르면 라벨과 게이트가 어긋남
	if cfg.Synthesis.SuspendThreshold != cfg.CrossValidation.TrustLow {
		warnings = append(warnings, Warning{
			Code:    "SUSPEND_BAND_DRIFT",
			Message: fmt.Sprintf("trust_suspend_threshold=%.1f differs from trust_low=%.1f", cfg.Synthesis.SuspendThreshold, cfg.CrossValidation.TrustLow),
		})
	}

	if cfg.Valuation.TerminalGrowthRate > 0.06 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_TERMINAL_GROWTH",
			Message: "terminal growth > 6%: terminal value will dominate",
		})
	}

	if cfg.Valuation.MaxGrowthRate > 0.30 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_GROWTH_CAP",
			Message: "max growth > 30%: projections may be optimistic",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateRateRange(rate float64, field string) error {
	if rate < 0 || rate >= 1 {
		return ValidationError{field, "must be in range [0, 1)"}
	}
	return nil
}

// validateDeltas는 그리드 축이 비어있지 않고 오름차순이며 0을 포함하는지 검증
func validateDeltas(deltas []float64, field string) error {
	if len(deltas) == 0 {
		return ValidationError{field, "must not be empty"}
	}
	if !sort.Float64sAreSorted(deltas) {
		return ValidationError{field, "must be ascending"}
	}
	for _, d := range deltas {
		if d == 0 {
			return nil
		}
	}
	return ValidationError{field, "must contain 0 (base case)"}
}
