package contracts

// UnavailableKind classifies why a result could not be produced
type UnavailableKind string

const (
	KindNone              UnavailableKind = ""
	KindInsufficientData  UnavailableKind = "INSUFFICIENT_DATA"
	KindNumericDegeneracy UnavailableKind = "NUMERIC_DEGENERACY"
	KindNotApplicable     UnavailableKind = "NOT_APPLICABLE"
)

// BetaInfo is the ingestion-side beta estimate
type BetaInfo struct {
	Beta      float64 `json:"beta"`
	Available bool    `json:"available"`
}

// ValuationInput bundles everything the DCF valuer reads
type ValuationInput struct {
	Statements        Statements
	CurrentPrice      float64
	SharesOutstanding float64 // 0 = unknown, derived from net profit / EPS
	Beta              BetaInfo
	Sector            string
}

// SensitivityGrid holds intrinsic values over WACC × terminal growth perturbations.
// Cells[i][j] is nil when WACCRange[i] is too close to TerminalGrowthRange[j].
type SensitivityGrid struct {
	WACCRange           []float64    `json:"wacc_range"`
	TerminalGrowthRange []float64    `json:"terminal_growth_range"`
	Cells               [][]*float64 `json:"cells"`
}

// Valid counts non-nil cells
func (g SensitivityGrid) Valid() int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// ValuationResult is the DCF valuer output
// ⭐ SSOT: DCF → Synthesizer/Renderer 전달 구조체
// Available=false이면 Kind/Reason 외 필드는 읽지 말 것
type ValuationResult struct {
	Available bool            `json:"available"`
	Kind      UnavailableKind `json:"kind,omitempty"`
	Reason    string          `json:"reason,omitempty"`

	IntrinsicValue float64  `json:"intrinsic_value"`
	CurrentPrice   float64  `json:"current_price"`
	UpsidePct      *float64 `json:"upside_pct"`

	// Discount-rate inputs (decimals, 0.12 = 12%)
	WACC           float64 `json:"wacc"`
	WACCFloored    bool    `json:"wacc_floored"`
	CostOfEquity   float64 `json:"cost_of_equity"`
	CostOfDebt     float64 `json:"cost_of_debt"`
	TaxRate        float64 `json:"tax_rate"`
	TaxRateDerived bool    `json:"tax_rate_derived"`
	GrowthRate     float64 `json:"growth_rate"`
	TerminalGrowth float64 `json:"terminal_growth"`

	// 4-step breakdown
	LatestFCF         float64   `json:"latest_fcf"`
	ProjectedFCF      []float64 `json:"projected_fcf,omitempty"`
	PVOfFCF           float64   `json:"pv_of_fcf"`
	TerminalValue     float64   `json:"terminal_value"`
	PVOfTerminal      float64   `json:"pv_of_terminal"`
	EnterpriseValue   float64   `json:"enterprise_value"`
	NetDebt           float64   `json:"net_debt"`
	EquityValue       float64   `json:"equity_value"`
	SharesOutstanding float64   `json:"shares_outstanding"`

	// Guardrail
	MarketCap  *float64 `json:"market_cap"`
	MarketEV   *float64 `json:"market_ev"`
	EVMismatch bool     `json:"ev_mismatch"`
	EVDeltaPct *float64 `json:"ev_delta_pct"`

	CapexOCFRatio *float64 `json:"capex_ocf_ratio"`
	PeakCapex     bool     `json:"peak_capex"`
	SectorSkip    bool     `json:"sector_skip"`

	Sensitivity *SensitivityGrid `json:"sensitivity,omitempty"`
}

// UnavailableValuation builds the unavailable variant
func UnavailableValuation(kind UnavailableKind, reason string) *ValuationResult {
	return &ValuationResult{Available: false, Kind: kind, Reason: reason}
}

// IntrinsicReliable reports whether the intrinsic value may be used downstream
func (v *ValuationResult) IntrinsicReliable() bool {
	return v != nil && v.Available && !v.EVMismatch
}
