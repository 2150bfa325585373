package contracts

import "time"

// AnalysisSnapshot is everything upstream collaborators hand to one engine run
// ⭐ SSOT: Ingestion/Extraction → Engine 입력 묶음
type AnalysisSnapshot struct {
	Code   string    `json:"code" validate:"required"`
	Name   string    `json:"name,omitempty"`
	Sector string    `json:"sector,omitempty"`
	AsOf   time.Time `json:"as_of"`

	Statements        Statements `json:"statements"`
	CurrentPrice      float64    `json:"current_price" validate:"gte=0"`
	SharesOutstanding float64    `json:"shares_outstanding" validate:"gte=0"`
	Beta              BetaInfo   `json:"beta"`

	Reference           *ReferenceFigures    `json:"reference,omitempty"`
	Footnotes           []Footnote           `json:"footnotes,omitempty" validate:"dive"`
	AuditorObservations []AuditorObservation `json:"auditor_observations,omitempty"`

	// Externally computed votes, in the order they should appear in the thesis
	Contributions []SignalContribution `json:"contributions,omitempty" validate:"dive"`
}

// ValuationInput projects the snapshot onto the DCF valuer input
func (s *AnalysisSnapshot) ValuationInput() ValuationInput {
	return ValuationInput{
		Statements:        s.Statements,
		CurrentPrice:      s.CurrentPrice,
		SharesOutstanding: s.SharesOutstanding,
		Beta:              s.Beta,
		Sector:            s.Sector,
	}
}

// Validate checks the structural contract of the snapshot
func (s *AnalysisSnapshot) Validate() error {
	return s.Statements.Validate()
}
