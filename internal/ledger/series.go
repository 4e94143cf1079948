package ledger

import (
	"time"

	"github.com/caixaclaro/caixaclaro/internal/money"
)

// CashFlowPoint is one month of the income/expense chart series.
type CashFlowPoint struct {
	Label   string      `json:"label"`
	Income  money.Money `json:"income"`
	Expense money.Money `json:"expense"`
}

// CashFlowSeries builds the trailing months series ending at ref's month,
// oldest first. The result always has exactly months points; months without
// entries carry zero values so charts get a fixed-length, chronologically
// ordered series.
func CashFlowSeries(entries []LedgerEntry, ref time.Time, months int) []CashFlowPoint {
	periods := TrailingMonths(ref, months)
	series := make([]CashFlowPoint, 0, len(periods))
	for _, p := range periods {
		series = append(series, CashFlowPoint{
			Label:   p.Label,
			Income:  SumByDirection(entries, DirectionIncome, p.Window),
			Expense: SumByDirection(entries, DirectionExpense, p.Window),
		})
	}
	return series
}
