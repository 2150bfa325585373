package contracts

import (
	"errors"
	"math"
	"testing"
	"time"
)

func fy(year int) time.Time {
	return time.Date(year, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func TestTimeSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		wantErr bool
	}{
		{name: "empty", points: nil},
		{name: "ascending", points: []Point{{fy(2021), Float(1)}, {fy(2022), nil}, {fy(2023), Float(3)}}},
		{name: "duplicate period", points: []Point{{fy(2021), Float(1)}, {fy(2021), Float(2)}}, wantErr: true},
		{name: "out of order", points: []Point{{fy(2022), Float(1)}, {fy(2021), Float(2)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TimeSeries{Metric: "sales", Points: tt.points}.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedSeries) {
					t.Errorf("Validate() error = %v, want ErrMalformedSeries", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestTimeSeries_Accessors(t *testing.T) {
	ts := TimeSeries{Metric: "sales", Points: []Point{
		{fy(2020), Float(100)},
		{fy(2021), nil},
		{fy(2022), Float(math.NaN())},
		{fy(2023), Float(130)},
		{fy(2024), Float(math.Inf(1))},
	}}

	if got := ts.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}

	values := ts.Values()
	if len(values) != 2 || values[0] != 100 || values[1] != 130 {
		t.Errorf("Values() = %v, want [100 130]", values)
	}

	if v, ok := ts.Latest(); !ok || v != 130 {
		t.Errorf("Latest() = %v, %v, want 130, true", v, ok)
	}

	latest := ts.LatestN(3)
	if len(latest) != 2 || latest[0] != 130 || latest[1] != 100 {
		t.Errorf("LatestN(3) = %v, want [130 100] (newest first)", latest)
	}

	if v, ok := ts.ForYear(2020); !ok || v != 100 {
		t.Errorf("ForYear(2020) = %v, %v, want 100, true", v, ok)
	}
	if _, ok := ts.ForYear(2021); ok {
		t.Error("ForYear(2021) should be missing (nil value)")
	}

	if v, ok := ts.Lookup(fy(2023)); !ok || v != 130 {
		t.Errorf("Lookup(2023) = %v, %v, want 130, true", v, ok)
	}
	if _, ok := ts.Lookup(fy(2022)); ok {
		t.Error("Lookup(2022) should reject NaN")
	}
	if _, ok := ts.Lookup(fy(2019)); ok {
		t.Error("Lookup(2019) should be missing")
	}
}

func TestTimeSeries_Empty(t *testing.T) {
	var ts TimeSeries

	if _, ok := ts.Latest(); ok {
		t.Error("Latest() on empty series should be missing")
	}
	if got := ts.LatestN(3); len(got) != 0 {
		t.Errorf("LatestN(3) = %v, want empty", got)
	}
}

func TestStatements(t *testing.T) {
	s := NewStatements()
	s.Put(StatementPnL, TimeSeries{Metric: MetricSales, Points: []Point{{fy(2023), Float(10)}}})

	if v, ok := s.Latest(StatementPnL, MetricSales); !ok || v != 10 {
		t.Errorf("Latest(sales) = %v, %v, want 10, true", v, ok)
	}

	missing := s.Get(StatementCashFlow, MetricCapex)
	if missing.Metric != MetricCapex || missing.Len() != 0 {
		t.Errorf("Get(capex) = %+v, want empty series named capex", missing)
	}

	// zero value Statements accept Put
	var zero Statements
	zero.Put(StatementBalanceSheet, TimeSeries{Metric: MetricCash})
	if _, ok := zero.BalanceSheet[MetricCash]; !ok {
		t.Error("Put on zero Statements should allocate the map")
	}

	if err := s.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestStatements_ValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() Statements
	}{
		{
			name: "key mismatch",
			build: func() Statements {
				s := NewStatements()
				s.PnL[MetricSales] = TimeSeries{Metric: MetricNetProfit}
				return s
			},
		},
		{
			name: "unsorted series",
			build: func() Statements {
				s := NewStatements()
				s.Put(StatementCashFlow, TimeSeries{Metric: MetricOperatingCF, Points: []Point{
					{fy(2023), Float(1)}, {fy(2022), Float(2)},
				}})
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if !errors.Is(err, ErrMalformedSeries) {
				t.Errorf("Validate() error = %v, want ErrMalformedSeries", err)
			}
		})
	}
}
