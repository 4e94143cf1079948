package ledger

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/caixaclaro/caixaclaro/internal/money"
)

// CounterpartyTotal is one grouped row of the expenses-by-counterparty chart.
// A dangling reference is grouped under id zero with the sentinel name.
type CounterpartyTotal struct {
	CounterpartyID int64       `json:"counterparty_id"`
	Name           string      `json:"name"`
	Total          money.Money `json:"total"`
}

var nameCollator = collate.New(language.BrazilianPortuguese)

// TopExpenseCounterparties groups the window's EXPENSE entries by
// counterparty and returns at most limit groups, largest total first. Ties
// are broken by display name ascending so output is deterministic. The
// grouping is a single pass over the full window, not a cut of the
// recent-entries list, so its totals reconcile with the month summary.
func TopExpenseCounterparties(snapshot Snapshot, window Window, limit int) []CounterpartyTotal {
	if limit <= 0 {
		return []CounterpartyTotal{}
	}

	names := snapshot.NameIndex()
	totals := make(map[int64]money.Money)
	for _, e := range snapshot.Entries {
		if e.Direction != DirectionExpense {
			continue
		}
		if !window.Contains(e.EntryDate) {
			continue
		}
		key := e.CounterpartyID
		if _, ok := names[key]; !ok {
			key = 0
		}
		totals[key] = totals[key].Add(e.Amount)
	}

	groups := make([]CounterpartyTotal, 0, len(totals))
	for id, total := range totals {
		if !total.Positive() {
			continue
		}
		name := UnknownCounterpartyName
		if id != 0 {
			name = names[id]
		}
		groups = append(groups, CounterpartyTotal{CounterpartyID: id, Name: name, Total: total})
	}

	sort.Slice(groups, func(i, j int) bool {
		if c := groups[i].Total.Cmp(groups[j].Total); c != 0 {
			return c > 0
		}
		if c := nameCollator.CompareString(groups[i].Name, groups[j].Name); c != 0 {
			return c < 0
		}
		return groups[i].CounterpartyID < groups[j].CounterpartyID
	})

	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}
