package crossval

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

func testConfig() engineconfig.CrossValidation {
	cfg := engineconfig.Default()
	return cfg.CrossValidation
}

func f(v float64) *float64 { return contracts.Float(v) }

func TestReconcile(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name       string
		source     *float64
		reference  *float64
		wantStatus contracts.CheckStatus
		wantPct    *float64
	}{
		{"scenario A: 0.5% is a match", f(1005), f(1000), contracts.StatusMatch, f(0.5)},
		{"scenario B: 8% is a mismatch", f(1080), f(1000), contracts.StatusMismatch, f(8)},
		{"exactly 2% matches", f(1020), f(1000), contracts.StatusMatch, f(2)},
		{"4% is partial", f(960), f(1000), contracts.StatusPartial, f(4)},
		{"exactly 6% is partial", f(1060), f(1000), contracts.StatusPartial, f(6)},
		{"negative reference uses magnitude", f(-1010), f(-1000), contracts.StatusMatch, f(1)},
		{"small value within absolute tolerance", f(5.9), f(5.2), contracts.StatusMatch, nil},
		{"small value beyond absolute tolerance", f(7.5), f(5.2), contracts.StatusMismatch, nil},
		{"missing source", nil, f(1000), contracts.StatusSkipped, nil},
		{"missing reference", f(1000), nil, contracts.StatusSkipped, nil},
		{"both missing", nil, nil, contracts.StatusSkipped, nil},
		{"NaN source", f(math.NaN()), f(1000), contracts.StatusSkipped, nil},
		{"Inf reference", f(1000), f(math.Inf(1)), contracts.StatusSkipped, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := Reconcile(contracts.MetricSales, tt.source, tt.reference, cfg)
			assert.Equal(t, tt.wantStatus, check.Status)
			assert.NotEmpty(t, check.Detail)
			if tt.wantPct == nil {
				assert.Nil(t, check.PctDiff)
			} else {
				require.NotNil(t, check.PctDiff)
				assert.InDelta(t, *tt.wantPct, *check.PctDiff, 1e-9)
			}
		})
	}
}

func TestReconcile_Monotonic(t *testing.T) {
	cfg := testConfig()
	rank := map[contracts.CheckStatus]int{
		contracts.StatusMatch:    0,
		contracts.StatusPartial:  1,
		contracts.StatusMismatch: 2,
	}

	for _, ref := range []float64{0.5, 5, 9.99, 10, 250, 1000, -4000} {
		prev := -1
		for step := 0; step <= 400; step++ {
			diff := float64(step) * math.Max(math.Abs(ref), 1) / 2000
			for _, sign := range []float64{1, -1} {
				check := Reconcile(contracts.MetricEPS, f(ref+sign*diff), f(ref), cfg)
				r := rank[check.Status]
				require.GreaterOrEqual(t, r, prev, "ref=%v diff=%v went back to %s", ref, diff, check.Status)
				if sign == -1 {
					prev = r
				}
			}
		}
	}
}

func TestValidate_TrustScore(t *testing.T) {
	cfg := testConfig()
	v := NewValidator(logger.Nop())

	// revenue MATCH, PAT PARTIAL, EPS MISMATCH, OCF MATCH
	source := SourceFigures{Revenue: f(1005), NetProfit: f(104), EPS: f(12.5), OperatingCF: f(150)}
	reference := &contracts.ReferenceFigures{Revenue: f(1000), NetProfit: f(100), EPS: f(10), OperatingCF: f(150)}

	high := contracts.AuditorObservation{Type: "Qualified opinion", Context: "except for inventory valuation"}
	kam := contracts.AuditorObservation{Type: "Key Audit Matter", Context: "revenue recognition"}

	tests := []struct {
		name      string
		auditor   []contracts.AuditorObservation
		wantScore float64
		wantLabel string
		penalty   float64
	}{
		{"no auditor flags", nil, 62.5, contracts.TrustLabelModerate, 0},
		{"low severity does not penalise", []contracts.AuditorObservation{kam, kam}, 62.5, contracts.TrustLabelModerate, 0},
		{"two HIGH flags", []contracts.AuditorObservation{high, high}, 42.5, contracts.TrustLabelLow, 20},
		{"penalty capped at 30", []contracts.AuditorObservation{high, high, high, high, high}, 32.5, contracts.TrustLabelUnreliable, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(source, reference, nil, tt.auditor, cfg)
			require.True(t, res.Available)
			require.NotNil(t, res.TrustScore)
			assert.InDelta(t, tt.wantScore, *res.TrustScore, 1e-9)
			assert.Equal(t, tt.wantLabel, res.Label)
			assert.InDelta(t, tt.penalty, res.Penalty, 1e-9)

			assert.Equal(t, contracts.CheckSummary{Matched: 2, Partial: 1, Mismatch: 1, Evaluable: 4, Total: 4}, res.Summary)
			require.Len(t, res.Checks, 4)
			assert.Equal(t, []string{contracts.MetricSales, contracts.MetricNetProfit, contracts.MetricEPS, contracts.MetricOperatingCF},
				[]string{res.Checks[0].Metric, res.Checks[1].Metric, res.Checks[2].Metric, res.Checks[3].Metric})
		})
	}
}

func TestValidate_ScoreFlooredAndRounded(t *testing.T) {
	cfg := testConfig()
	v := NewValidator(logger.Nop())
	high := contracts.AuditorObservation{Type: "material weakness"}

	// 1 match of 3 evaluable: 33.3 after rounding
	res := v.Validate(
		SourceFigures{Revenue: f(1000), NetProfit: f(200), EPS: f(30)},
		&contracts.ReferenceFigures{Revenue: f(1000), NetProfit: f(100), EPS: f(10)},
		nil, nil, cfg)
	require.NotNil(t, res.TrustScore)
	assert.Equal(t, 33.3, *res.TrustScore)
	assert.Equal(t, 1, res.Summary.Skipped)

	// all mismatches + penalty: floored at 0
	res = v.Validate(
		SourceFigures{Revenue: f(2000)},
		&contracts.ReferenceFigures{Revenue: f(1000)},
		nil, []contracts.AuditorObservation{high}, cfg)
	require.NotNil(t, res.TrustScore)
	assert.Equal(t, 0.0, *res.TrustScore)
	assert.Equal(t, contracts.TrustLabelUnreliable, res.Label)
}

func TestValidate_InsufficientData(t *testing.T) {
	v := NewValidator(logger.Nop())

	res := v.Validate(SourceFigures{Revenue: f(1000)}, &contracts.ReferenceFigures{NetProfit: f(10)}, nil, nil, testConfig())
	assert.True(t, res.Available)
	assert.Nil(t, res.TrustScore)
	assert.Equal(t, contracts.TrustLabelInsufficient, res.Label)
	assert.Equal(t, 0, res.Summary.Evaluable)
	_, ok := res.Score()
	assert.False(t, ok)
}

func TestValidate_NoReference(t *testing.T) {
	res := NewValidator(logger.Nop()).Validate(SourceFigures{Revenue: f(1000)}, nil, nil, nil, testConfig())
	assert.False(t, res.Available)
	assert.Nil(t, res.TrustScore)
	assert.NotEmpty(t, res.Reason)
}

func TestValidate_ScoreRange(t *testing.T) {
	cfg := testConfig()
	v := NewValidator(logger.Nop())
	values := []*float64{nil, f(math.NaN()), f(0), f(5), f(980), f(1000), f(1030), f(1500)}
	obs := []contracts.AuditorObservation{{Type: "qualified"}, {Type: "emphasis of matter"}}

	for _, rev := range values {
		for _, pat := range values {
			for n := 0; n <= len(obs); n++ {
				res := v.Validate(
					SourceFigures{Revenue: rev, NetProfit: pat},
					&contracts.ReferenceFigures{Revenue: f(1000), NetProfit: f(1000)},
					nil, obs[:n], cfg)
				if res.TrustScore == nil {
					assert.Equal(t, 0, res.Summary.Evaluable)
					continue
				}
				assert.Greater(t, res.Summary.Evaluable, 0)
				assert.GreaterOrEqual(t, *res.TrustScore, 0.0)
				assert.LessOrEqual(t, *res.TrustScore, 100.0)
			}
		}
	}
}

func TestScanFootnotes(t *testing.T) {
	footnotes := []contracts.Footnote{
		{ID: "n1", Title: "Exceptional items", Text: "One-time gain on sale of land", Numbers: []float64{1, 2, 3, 4, 5, 6, 7}, Page: 120},
		{ID: "n2", Title: "Basis of preparation", Text: "Previous year figures have been regrouped and reclassified wherever necessary. Restated for impairment."},
		{ID: "n3", Title: "Going concern", Text: "There is a material uncertainty regarding the ability to continue."},
		{ID: "n4", Title: "Litigation", Text: "A settlement was reached; litigation on impairment of goodwill continues."},
		{ID: "n1", Title: "Exceptional items (contd.)", Text: "extraordinary loss"},
		{ID: "n5", Title: "Other", Text: strings.Repeat("x", 600) + " going concern"},
		{ID: "n6", Title: "Prior period", Text: "Figures restated following a prior period adjustment"},
	}

	flags := ScanFootnotes(footnotes, 500)

	type key struct{ cat, id string }
	got := make([]key, len(flags))
	for i, fl := range flags {
		got[i] = key{fl.Category, fl.SourceID}
	}
	assert.Equal(t, []key{
		{CategoryExceptional, "n1"},
		{CategoryGoingConcern, "n3"},
		{CategoryLegalSettlement, "n4"},
		{CategoryImpairment, "n4"},
		{CategoryRestatement, "n6"},
	}, got)

	assert.Equal(t, contracts.SeverityMedium, flags[0].Severity)
	assert.Equal(t, "exceptional", flags[0].Keyword)
	assert.Len(t, flags[0].Numbers, 5)
	assert.Equal(t, 120, flags[0].Page)
	assert.Equal(t, contracts.SeverityCritical, flags[1].Severity)
	assert.Equal(t, contracts.SeverityHigh, flags[4].Severity)
}

func TestScanFootnotes_Empty(t *testing.T) {
	flags := ScanFootnotes(nil, 500)
	assert.NotNil(t, flags)
	assert.Empty(t, flags)
}

func TestClassifyAuditor(t *testing.T) {
	tests := []struct {
		obs  contracts.AuditorObservation
		want contracts.Severity
	}{
		{contracts.AuditorObservation{Type: "Material uncertainty related to Going Concern"}, contracts.SeverityCritical},
		{contracts.AuditorObservation{Type: "Adverse opinion"}, contracts.SeverityCritical},
		{contracts.AuditorObservation{Type: "Disclaimer of opinion"}, contracts.SeverityCritical},
		{contracts.AuditorObservation{Type: "Emphasis of matter - going concern"}, contracts.SeverityCritical},
		{contracts.AuditorObservation{Type: "Qualified Opinion"}, contracts.SeverityHigh},
		{contracts.AuditorObservation{Type: "Basis for opinion", Context: "except for"}, contracts.SeverityMedium},
		{contracts.AuditorObservation{Type: "Non-compliance with Ind AS 115"}, contracts.SeverityHigh},
		{contracts.AuditorObservation{Type: "Emphasis of Matter"}, contracts.SeverityMedium},
		{contracts.AuditorObservation{Type: "Key Audit Matter"}, contracts.SeverityLow},
		{contracts.AuditorObservation{Type: "Other information"}, contracts.SeverityMedium},
		{contracts.AuditorObservation{Type: "", Context: "Except for the effects of the matter described"}, contracts.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.obs.Type+"|"+tt.obs.Context, func(t *testing.T) {
			flags := ClassifyAuditor([]contracts.AuditorObservation{tt.obs})
			require.Len(t, flags, 1)
			assert.Equal(t, tt.want, flags[0].Severity)
			assert.Equal(t, CategoryAuditor, flags[0].Category)
		})
	}
}

func TestContingentFlag(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name   string
		amount *float64
		assets *float64
		want   contracts.Severity
	}{
		{"material", f(150), f(1000), contracts.SeverityHigh},
		{"medium", f(60), f(1000), contracts.SeverityMedium},
		{"exactly 5% is low", f(50), f(1000), contracts.SeverityLow},
		{"no total assets", f(60), nil, contracts.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := contingentFlag(tt.amount, tt.assets, cfg)
			require.NotNil(t, flag)
			assert.Equal(t, tt.want, flag.Severity)
			assert.NotEmpty(t, flag.Impact)
		})
	}
	assert.Nil(t, contingentFlag(nil, f(1000), cfg))

	res := NewValidator(logger.Nop()).Validate(
		SourceFigures{Revenue: f(1000), TotalAssets: f(1000)},
		&contracts.ReferenceFigures{Revenue: f(1000), ContingentLiabilities: f(150)},
		nil, nil, cfg)
	require.NotNil(t, res.ContingentFlag)
	assert.Equal(t, contracts.SeverityHigh, res.ContingentFlag.Severity)
}

func TestSourceFiguresFrom(t *testing.T) {
	s := contracts.NewStatements()
	mk := func(metric string, values ...float64) contracts.TimeSeries {
		pts := make([]contracts.Point, len(values))
		for i, v := range values {
			pts[i] = contracts.Point{Period: time.Date(2022+i, time.March, 31, 0, 0, 0, 0, time.UTC), Value: f(v)}
		}
		return contracts.TimeSeries{Metric: metric, Points: pts}
	}
	s.Put(contracts.StatementPnL, mk(contracts.MetricSales, 900, 1000, 1100))
	s.Put(contracts.StatementPnL, mk(contracts.MetricEPS, 9, 10))
	s.Put(contracts.StatementCashFlow, mk(contracts.MetricOperatingCF, 90, 100, 110))

	fy := SourceFiguresFrom(s, 2023)
	require.NotNil(t, fy.Revenue)
	assert.Equal(t, 1000.0, *fy.Revenue)
	assert.Equal(t, 10.0, *fy.EPS)
	assert.Equal(t, 100.0, *fy.OperatingCF)
	assert.Nil(t, fy.NetProfit)

	// unknown year falls back to latest
	latest := SourceFiguresFrom(s, 2030)
	assert.Equal(t, 1100.0, *latest.Revenue)
	assert.Equal(t, 10.0, *latest.EPS)

	assert.Equal(t, 1100.0, *SourceFiguresFrom(s, 0).Revenue)
}
