package contracts

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSeries is returned when a TimeSeries breaks its ordering contract.
// Callers must treat it as a programming error on the ingestion side.
var ErrMalformedSeries = errors.New("malformed time series")

// Point is one period of a line item. Value is nil when the source had no figure.
type Point struct {
	Period time.Time `json:"period" validate:"required"`
	Value  *float64  `json:"value"`
}

// TimeSeries is an ordered annual/quarterly series for one canonical metric
// ⭐ SSOT: Points는 기간 오름차순, 중복 기간 금지
type TimeSeries struct {
	Metric string  `json:"metric" validate:"required"`
	Points []Point `json:"points" validate:"dive"`
}

// Validate checks that periods are strictly ascending
func (ts TimeSeries) Validate() error {
	for i := 1; i < len(ts.Points); i++ {
		prev, cur := ts.Points[i-1].Period, ts.Points[i].Period
		if cur.Equal(prev) {
			return fmt.Errorf("%w: %s has duplicate period %s", ErrMalformedSeries, ts.Metric, cur.Format("2006-01-02"))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w: %s period %s is out of order", ErrMalformedSeries, ts.Metric, cur.Format("2006-01-02"))
		}
	}
	return nil
}

// Len returns the number of points including missing values
func (ts TimeSeries) Len() int {
	return len(ts.Points)
}

// Present returns the points that carry a finite value, in period order
func (ts TimeSeries) Present() []Point {
	out := make([]Point, 0, len(ts.Points))
	for _, p := range ts.Points {
		if isFinite(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

// Values returns the finite values in period order
func (ts TimeSeries) Values() []float64 {
	present := ts.Present()
	out := make([]float64, len(present))
	for i, p := range present {
		out[i] = *p.Value
	}
	return out
}

// Latest returns the most recent finite value
func (ts TimeSeries) Latest() (float64, bool) {
	for i := len(ts.Points) - 1; i >= 0; i-- {
		if isFinite(ts.Points[i].Value) {
			return *ts.Points[i].Value, true
		}
	}
	return 0, false
}

// LatestN returns up to n most recent finite values, newest first
func (ts TimeSeries) LatestN(n int) []float64 {
	out := make([]float64, 0, n)
	for i := len(ts.Points) - 1; i >= 0 && len(out) < n; i-- {
		if isFinite(ts.Points[i].Value) {
			out = append(out, *ts.Points[i].Value)
		}
	}
	return out
}

// ForYear returns the finite value whose period falls in the given calendar year
func (ts TimeSeries) ForYear(year int) (float64, bool) {
	for i := len(ts.Points) - 1; i >= 0; i-- {
		p := ts.Points[i]
		if p.Period.Year() == year && isFinite(p.Value) {
			return *p.Value, true
		}
	}
	return 0, false
}

// Lookup returns the value at an exact period
func (ts TimeSeries) Lookup(period time.Time) (float64, bool) {
	for _, p := range ts.Points {
		if p.Period.Equal(period) {
			if isFinite(p.Value) {
				return *p.Value, true
			}
			return 0, false
		}
	}
	return 0, false
}

// Float returns a pointer to v, for building optional values
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
