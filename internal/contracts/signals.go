package contracts

// Built-in signal names. External producers may use any other name.
// ⭐ SSOT: 시그널 이름은 여기서만 정의 ("dcf"는 Synthesizer 전용)
const (
	SignalDCF            = "dcf"
	SignalCashConversion = "cash_conversion"
	SignalRevenueGrowth  = "revenue_growth"
	SignalProfitGrowth   = "profit_growth"
	SignalMultiples      = "valuation_multiples"
	SignalQuality        = "quality"
)

// SignalContribution is one upstream module's binary vote
type SignalContribution struct {
	Name       string `json:"name" validate:"required"`
	Available  bool   `json:"available"`
	IsPositive *bool  `json:"is_positive"`
	Rationale  string `json:"rationale"`
}

// Votes reports whether the contribution takes part in the vote
func (s SignalContribution) Votes() bool {
	return s.Available && s.IsPositive != nil
}

// Positive builds an available, positive contribution
func Positive(name, rationale string) SignalContribution {
	return SignalContribution{Name: name, Available: true, IsPositive: Bool(true), Rationale: rationale}
}

// Negative builds an available, negative contribution
func Negative(name, rationale string) SignalContribution {
	return SignalContribution{Name: name, Available: true, IsPositive: Bool(false), Rationale: rationale}
}

// Abstain builds an available contribution with no judgment (e.g. neutral band)
func Abstain(name, rationale string) SignalContribution {
	return SignalContribution{Name: name, Available: true, Rationale: rationale}
}

// Missing builds an unavailable contribution
func Missing(name, reason string) SignalContribution {
	return SignalContribution{Name: name, Available: false, Rationale: reason}
}

// CountVotes returns (positive, voting) over a contribution list
func CountVotes(contributions []SignalContribution) (int, int) {
	positive, voting := 0, 0
	for _, c := range contributions {
		if !c.Votes() {
			continue
		}
		voting++
		if *c.IsPositive {
			positive++
		}
	}
	return positive, voting
}
