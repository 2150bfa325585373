package engineconfig

import "time"

// Config는 가치평가/검증/종합 엔진의 전체 설정
// 모든 컴포넌트 호출에 값(value)으로 전달됨 - 전역 싱글톤 없음
type Config struct {
	Meta            Meta            `yaml:"meta" json:"meta"`
	Valuation       Valuation       `yaml:"valuation" json:"valuation"`
	CrossValidation CrossValidation `yaml:"cross_validation" json:"cross_validation"`
	Synthesis       Synthesis       `yaml:"synthesis" json:"synthesis"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id" default:"aegis_valuation_v1"`
	Version  string `yaml:"version" json:"version" default:"1.0.0"`
	Currency string `yaml:"currency" json:"currency" default:"Cr"`
}

// Valuation DCF 설정 (모든 비율은 소수: 0.04 = 4%)
type Valuation struct {
	RiskFreeRate       float64 `yaml:"risk_free_rate" json:"risk_free_rate" default:"0.07"`
	EquityRiskPremium  float64 `yaml:"equity_risk_premium" json:"equity_risk_premium" default:"0.06"`
	TaxRate            float64 `yaml:"tax_rate" json:"tax_rate" default:"0.25"`
	CreditSpread       float64 `yaml:"credit_spread" json:"credit_spread" default:"0.02"`
	ProjectionYears    int     `yaml:"projection_years" json:"projection_years" default:"10"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate" json:"terminal_growth_rate" default:"0.04"`
	MinGrowthRate      float64 `yaml:"min_growth_rate" json:"min_growth_rate" default:"0.02"`
	MaxGrowthRate      float64 `yaml:"max_growth_rate" json:"max_growth_rate" default:"0.20"`
	WACCSafetyMargin   float64 `yaml:"wacc_safety_margin" json:"wacc_safety_margin" default:"0.02"`
	MinFCFYears        int     `yaml:"min_fcf_years" json:"min_fcf_years" default:"3"`
	TrailingFCFYears   int     `yaml:"trailing_fcf_years" json:"trailing_fcf_years" default:"3"`

	EVMismatchThresholdPct float64 `yaml:"ev_mismatch_threshold_pct" json:"ev_mismatch_threshold_pct" default:"50"`

	Sensitivity Sensitivity `yaml:"sensitivity" json:"sensitivity"`

	PeakCapexRatio   float64  `yaml:"peak_capex_ratio" json:"peak_capex_ratio" default:"0.8"`
	FinancialSectors []string `yaml:"financial_sectors" json:"financial_sectors" default:"[\"financial services\",\"banking\",\"banks\",\"nbfc\",\"insurance\",\"financials\",\"credit services\"]"`
}

// Sensitivity 5x5 민감도 그리드
type Sensitivity struct {
	WACCDeltas           []float64 `yaml:"wacc_deltas" json:"wacc_deltas" default:"[-0.02,-0.01,0,0.01,0.02]"`
	TerminalGrowthDeltas []float64 `yaml:"terminal_growth_deltas" json:"terminal_growth_deltas" default:"[-0.01,-0.005,0,0.005,0.01]"`
	InvalidMargin        float64   `yaml:"invalid_margin" json:"invalid_margin" default:"0.005"`
}

// CrossValidation 교차검증 허용오차 / 신뢰도 밴드
type CrossValidation struct {
	PctTolerance      float64 `yaml:"reconciliation_pct_tolerance" json:"reconciliation_pct_tolerance" default:"2"`
	PartialMultiplier float64 `yaml:"reconciliation_partial_multiplier" json:"reconciliation_partial_multiplier" default:"3"`
	AbsThreshold      float64 `yaml:"abs_threshold" json:"abs_threshold" default:"10"`
	AbsTolerance      float64 `yaml:"abs_tolerance" json:"abs_tolerance" default:"1.0"`

	AuditorPenaltyPerFlag float64 `yaml:"auditor_penalty_per_flag" json:"auditor_penalty_per_flag" default:"10"`
	AuditorPenaltyCap     float64 `yaml:"auditor_penalty_cap" json:"auditor_penalty_cap" default:"30"`

	TrustHigh     float64 `yaml:"trust_high" json:"trust_high" default:"80"`
	TrustModerate float64 `yaml:"trust_moderate" json:"trust_moderate" default:"60"`
	TrustLow      float64 `yaml:"trust_low" json:"trust_low" default:"40"`

	ContingentHighPct   float64 `yaml:"contingent_high_pct" json:"contingent_high_pct" default:"10"`
	ContingentMediumPct float64 `yaml:"contingent_medium_pct" json:"contingent_medium_pct" default:"5"`

	FootnoteScanChars int `yaml:"footnote_scan_chars" json:"footnote_scan_chars" default:"500"`
}

// Synthesis 투표 밴드 / 게이트
type Synthesis struct {
	SuspendThreshold      float64 `yaml:"trust_suspend_threshold" json:"trust_suspend_threshold" default:"40"`
	BuyRatio              float64 `yaml:"buy_ratio" json:"buy_ratio" default:"0.6666666666666666"`
	HoldRatio             float64 `yaml:"hold_ratio" json:"hold_ratio" default:"0.3333333333333333"`
	HighConfidenceMin     int     `yaml:"high_confidence_min" json:"high_confidence_min" default:"12"`
	MediumConfidenceMin   int     `yaml:"medium_confidence_min" json:"medium_confidence_min" default:"7"`
	DCFUpsideThresholdPct float64 `yaml:"dcf_upside_threshold_pct" json:"dcf_upside_threshold_pct" default:"0"`
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	ConfigID   string    `json:"config_id"`
	GitCommit  string    `json:"git_commit"`
	CreatedAt  time.Time `json:"created_at"`
}
