package contracts

import (
	"fmt"
	"sort"
)

// Canonical metric names shared by ingestion and the engine
// ⭐ SSOT: 재무제표 항목 이름은 여기서만 정의
const (
	// P&L
	MetricSales        = "sales"
	MetricNetProfit    = "net_profit"
	MetricEPS          = "eps"
	MetricInterest     = "interest"
	MetricTax          = "tax"
	MetricTaxPct       = "tax_pct"
	MetricPBT          = "pbt"
	MetricDepreciation = "depreciation"

	// Balance sheet
	MetricBorrowings     = "borrowings"
	MetricEquityCapital  = "equity_capital"
	MetricReserves       = "reserves"
	MetricCash           = "cash_equivalents"
	MetricTotalAssets    = "total_assets"
	MetricSharesOutstand = "shares_outstanding"

	// Cash flow
	MetricOperatingCF = "operating_cf"
	MetricCapex       = "capex"
	MetricInvestingCF = "investing_cf"
)

// Statement identifies one of the three financial statements
type Statement string

const (
	StatementPnL          Statement = "pnl"
	StatementBalanceSheet Statement = "balance_sheet"
	StatementCashFlow     Statement = "cash_flow"
)

// Statements holds per-statement series keyed by canonical metric name
type Statements struct {
	PnL          map[string]TimeSeries `json:"pnl"`
	BalanceSheet map[string]TimeSeries `json:"balance_sheet"`
	CashFlow     map[string]TimeSeries `json:"cash_flow"`
}

// NewStatements returns empty, non-nil statement maps
func NewStatements() Statements {
	return Statements{
		PnL:          make(map[string]TimeSeries),
		BalanceSheet: make(map[string]TimeSeries),
		CashFlow:     make(map[string]TimeSeries),
	}
}

// Get returns the series for a metric; the zero series when absent
func (s Statements) Get(stmt Statement, metric string) TimeSeries {
	var m map[string]TimeSeries
	switch stmt {
	case StatementPnL:
		m = s.PnL
	case StatementBalanceSheet:
		m = s.BalanceSheet
	case StatementCashFlow:
		m = s.CashFlow
	}
	if ts, ok := m[metric]; ok {
		return ts
	}
	return TimeSeries{Metric: metric}
}

// Put stores a series under its metric name
func (s *Statements) Put(stmt Statement, ts TimeSeries) {
	switch stmt {
	case StatementPnL:
		if s.PnL == nil {
			s.PnL = make(map[string]TimeSeries)
		}
		s.PnL[ts.Metric] = ts
	case StatementBalanceSheet:
		if s.BalanceSheet == nil {
			s.BalanceSheet = make(map[string]TimeSeries)
		}
		s.BalanceSheet[ts.Metric] = ts
	case StatementCashFlow:
		if s.CashFlow == nil {
			s.CashFlow = make(map[string]TimeSeries)
		}
		s.CashFlow[ts.Metric] = ts
	}
}

// Latest returns the latest finite value of a metric
func (s Statements) Latest(stmt Statement, metric string) (float64, bool) {
	return s.Get(stmt, metric).Latest()
}

// Validate checks every series and that map keys match metric names
func (s Statements) Validate() error {
	sections := []struct {
		name Statement
		m    map[string]TimeSeries
	}{
		{StatementPnL, s.PnL},
		{StatementBalanceSheet, s.BalanceSheet},
		{StatementCashFlow, s.CashFlow},
	}
	for _, sec := range sections {
		name := sec.name
		for _, key := range sortedKeys(sec.m) {
			ts := sec.m[key]
			if ts.Metric != "" && ts.Metric != key {
				return fmt.Errorf("%w: %s key %q holds series %q", ErrMalformedSeries, name, key, ts.Metric)
			}
			if err := ts.Validate(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]TimeSeries) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
