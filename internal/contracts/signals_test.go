package contracts

import (
	"testing"
)

func TestCountVotes(t *testing.T) {
	contributions := []SignalContribution{
		Positive("a", "up"),
		Negative("b", "down"),
		Abstain("c", "neutral"),
		Missing("d", "no data"),
		Positive("e", "up"),
		{Name: "f", Available: false, IsPositive: Bool(true)}, // unavailable never votes
	}

	positive, voting := CountVotes(contributions)
	if positive != 2 || voting != 3 {
		t.Errorf("CountVotes() = (%d, %d), want (2, 3)", positive, voting)
	}

	if p, v := CountVotes(nil); p != 0 || v != 0 {
		t.Errorf("CountVotes(nil) = (%d, %d), want (0, 0)", p, v)
	}
}

func TestTier_Rank(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierSuspended, 0},
		{TierSell, 1},
		{TierHold, 2},
		{TierBuy, 3},
		{Tier("UNKNOWN"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			if got := tt.tier.Rank(); got != tt.want {
				t.Errorf("Rank() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
	if Severity("").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestTrustScoreResult_FlagsBySeverity(t *testing.T) {
	var nilResult *TrustScoreResult
	if got := nilResult.FlagsBySeverity(); len(got) != 0 {
		t.Errorf("nil result returned %d flags", len(got))
	}

	res := &TrustScoreResult{
		FootnoteFlags: []RiskFlag{
			{Category: "footnote", Severity: SeverityMedium, Title: "related party"},
			{Category: "footnote", Severity: SeverityCritical, Title: "litigation"},
		},
		AuditorFlags: []RiskFlag{
			{Category: "auditor", Severity: SeverityMedium, Title: "emphasis of matter"},
			{Category: "auditor", Severity: SeverityHigh, Title: "qualified opinion"},
		},
		ContingentFlag: &RiskFlag{Category: "contingent", Severity: SeverityLow},
	}

	want := []string{"litigation", "qualified opinion", "related party", "emphasis of matter", ""}
	got := res.FlagsBySeverity()
	if len(got) != len(want) {
		t.Fatalf("FlagsBySeverity() returned %d flags, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("flag[%d] = %q (%s), want %q", i, got[i].Title, got[i].Severity, want[i])
		}
	}
	if len(res.FootnoteFlags) != 2 || res.FootnoteFlags[0].Title != "related party" {
		t.Error("FlagsBySeverity must not reorder the source slices")
	}
}

func TestTrustScoreResult_Score(t *testing.T) {
	var nilResult *TrustScoreResult
	if _, ok := nilResult.Score(); ok {
		t.Error("nil result should have no score")
	}

	if _, ok := UnavailableTrust("no reference").Score(); ok {
		t.Error("unavailable result should have no score")
	}

	insufficient := &TrustScoreResult{Available: true, Label: TrustLabelInsufficient}
	if _, ok := insufficient.Score(); ok {
		t.Error("nil TrustScore should have no score")
	}

	scored := &TrustScoreResult{Available: true, TrustScore: Float(62.5)}
	if v, ok := scored.Score(); !ok || v != 62.5 {
		t.Errorf("Score() = %v, %v, want 62.5, true", v, ok)
	}
}

func TestValuationResult_IntrinsicReliable(t *testing.T) {
	var nilResult *ValuationResult
	if nilResult.IntrinsicReliable() {
		t.Error("nil result is not reliable")
	}
	if UnavailableValuation(KindInsufficientData, "x").IntrinsicReliable() {
		t.Error("unavailable result is not reliable")
	}
	if (&ValuationResult{Available: true, EVMismatch: true}).IntrinsicReliable() {
		t.Error("mismatched result is not reliable")
	}
}

func TestSensitivityGrid_Valid(t *testing.T) {
	g := SensitivityGrid{Cells: [][]*float64{{Float(1), nil}, {nil, Float(2)}}}
	if got := g.Valid(); got != 2 {
		t.Errorf("Valid() = %d, want 2", got)
	}
}

func TestAllStages(t *testing.T) {
	stages := AllStages()
	if len(stages) != 4 || stages[len(stages)-1] != StageSynthesis {
		t.Errorf("AllStages() = %v, want synthesis last of 4", stages)
	}
}
