package ledger

import (
	"sort"
	"time"

	"github.com/caixaclaro/caixaclaro/internal/money"
)

// Summary are the scalar month totals surfaced on the dashboard card.
type Summary struct {
	Income  money.Money `json:"income"`
	Expense money.Money `json:"expense"`
	Net     money.Money `json:"net"`
}

// RecentEntry joins a ledger entry with its counterparty's display name.
type RecentEntry struct {
	Entry            LedgerEntry `json:"entry"`
	CounterpartyName string      `json:"counterparty_name"`
}

// SumByDirection totals every entry matching the direction whose entry date
// falls inside the window. No matches sum to zero, never an error.
func SumByDirection(entries []LedgerEntry, direction Direction, window Window) money.Money {
	var total money.Money
	for _, e := range entries {
		if e.Direction != direction {
			continue
		}
		if !window.Contains(e.EntryDate) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// TotalBalance is all-time income minus all-time expense, unbounded by any
// window. It can be negative.
func TotalBalance(entries []LedgerEntry) money.Money {
	var income, expense money.Money
	for _, e := range entries {
		switch e.Direction {
		case DirectionIncome:
			income = income.Add(e.Amount)
		case DirectionExpense:
			expense = expense.Add(e.Amount)
		}
	}
	return income.Sub(expense)
}

// MonthSummary computes income, expense and net for the month containing ref.
func MonthSummary(entries []LedgerEntry, ref time.Time) Summary {
	window := MonthWindow(ref)
	income := SumByDirection(entries, DirectionIncome, window)
	expense := SumByDirection(entries, DirectionExpense, window)
	return Summary{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// RecentEntries returns the limit most recent entries by entry date, ties
// broken by id descending, each joined with its counterparty name. Dangling
// counterparty references get the sentinel name instead of failing the report.
func RecentEntries(snapshot Snapshot, limit int) []RecentEntry {
	if limit <= 0 || len(snapshot.Entries) == 0 {
		return []RecentEntry{}
	}

	ordered := make([]LedgerEntry, len(snapshot.Entries))
	copy(ordered, snapshot.Entries)
	sort.Slice(ordered, func(i, j int) bool {
		di, dj := DateOnly(ordered[i].EntryDate), DateOnly(ordered[j].EntryDate)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return ordered[i].ID > ordered[j].ID
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	names := snapshot.NameIndex()
	recent := make([]RecentEntry, 0, len(ordered))
	for _, e := range ordered {
		name, ok := names[e.CounterpartyID]
		if !ok {
			name = UnknownCounterpartyName
		}
		recent = append(recent, RecentEntry{Entry: e, CounterpartyName: name})
	}
	return recent
}

// CounterpartyCount counts the owner's counterparties, independent of entries.
func CounterpartyCount(snapshot Snapshot) int {
	return len(snapshot.Counterparties)
}
