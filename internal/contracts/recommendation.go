package contracts

// Tier is the final rating
type Tier string

const (
	TierBuy       Tier = "BUY"
	TierHold      Tier = "HOLD"
	TierSell      Tier = "SELL"
	TierSuspended Tier = "SUSPENDED"
)

// Rank orders actionable tiers SELL=1 < HOLD=2 < BUY=3; SUSPENDED=0
func (t Tier) Rank() int {
	switch t {
	case TierSell:
		return 1
	case TierHold:
		return 2
	case TierBuy:
		return 3
	default:
		return 0
	}
}

// Confidence reflects how many signals contributed
type Confidence string

const (
	ConfidenceLow     Confidence = "LOW"
	ConfidenceMedium  Confidence = "MEDIUM"
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceInvalid Confidence = "INVALID"
)

// Recommendation is the terminal output of one synthesis run
// ⭐ SSOT: 0 <= Score <= MaxScore
type Recommendation struct {
	Tier             Tier       `json:"tier"`
	Score            int        `json:"score"`
	MaxScore         int        `json:"max_score"`
	ScorePct         *float64   `json:"score_pct"`
	Confidence       Confidence `json:"confidence"`
	Thesis           []string   `json:"thesis"`
	Horizon          string     `json:"horizon"`
	DataSuspended    bool       `json:"data_suspended"`
	GuardrailApplied bool       `json:"guardrail_applied"`
}
