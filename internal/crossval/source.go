package crossval

import (
	"github.com/wonny/aegis-valuation/internal/contracts"
)

// SourceFigures are the scraped figures reconciled against the filing
type SourceFigures struct {
	Revenue     *float64
	NetProfit   *float64
	EPS         *float64
	OperatingCF *float64
	TotalAssets *float64
}

// SourceFiguresFrom picks the fiscal-year column matching the reference filing
// fiscalYear == 0 이거나 해당 연도가 없으면 최신 값 사용
func SourceFiguresFrom(s contracts.Statements, fiscalYear int) SourceFigures {
	pick := func(stmt contracts.Statement, metric string) *float64 {
		ts := s.Get(stmt, metric)
		if fiscalYear > 0 {
			if v, ok := ts.ForYear(fiscalYear); ok {
				return contracts.Float(v)
			}
		}
		if v, ok := ts.Latest(); ok {
			return contracts.Float(v)
		}
		return nil
	}

	return SourceFigures{
		Revenue:     pick(contracts.StatementPnL, contracts.MetricSales),
		NetProfit:   pick(contracts.StatementPnL, contracts.MetricNetProfit),
		EPS:         pick(contracts.StatementPnL, contracts.MetricEPS),
		OperatingCF: pick(contracts.StatementCashFlow, contracts.MetricOperatingCF),
		TotalAssets: pick(contracts.StatementBalanceSheet, contracts.MetricTotalAssets),
	}
}
