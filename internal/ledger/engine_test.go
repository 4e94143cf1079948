package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caixaclaro/caixaclaro/internal/money"
)

func entry(id int64, d Direction, cents int64, on time.Time, counterparty int64) LedgerEntry {
	return LedgerEntry{
		ID:             id,
		OwnerID:        1,
		Direction:      d,
		Description:    "entry",
		Amount:         money.FromCents(cents),
		EntryDate:      on,
		Status:         "paid",
		CounterpartyID: counterparty,
	}
}

func acmeSnapshot() Snapshot {
	return Snapshot{
		OwnerID: 1,
		Entries: []LedgerEntry{
			entry(1, DirectionIncome, 100000, date(2024, time.March, 10), 1),
			entry(2, DirectionExpense, 40000, date(2024, time.March, 15), 1),
		},
		Counterparties: []Counterparty{
			{ID: 1, OwnerID: 1, Name: "Acme", Kind: KindOrganization, Document: "12345678000190"},
		},
	}
}

func TestMonthSummaryScenario(t *testing.T) {
	snap := acmeSnapshot()
	got := MonthSummary(snap.Entries, date(2024, time.March, 20))
	require.Equal(t, "1000.00", got.Income.String())
	require.Equal(t, "400.00", got.Expense.String())
	require.Equal(t, "600.00", got.Net.String())
	require.Equal(t, got.Income.Sub(got.Expense), got.Net)
}

func TestSumByDirectionWindowBoundaries(t *testing.T) {
	w := MonthWindow(date(2024, time.March, 1))
	entries := []LedgerEntry{
		entry(1, DirectionExpense, 100, date(2024, time.March, 31), 1), // last day: in
		entry(2, DirectionExpense, 200, date(2024, time.April, 1), 1),  // day after: out
	}
	require.Equal(t, int64(100), SumByDirection(entries, DirectionExpense, w).Cents)

	next := MonthWindow(date(2024, time.April, 1))
	require.Equal(t, int64(200), SumByDirection(entries, DirectionExpense, next).Cents)
}

func TestSumByDirectionNoMatchesIsZero(t *testing.T) {
	w := MonthWindow(date(2024, time.March, 1))
	require.True(t, SumByDirection(nil, DirectionIncome, w).IsZero())
	require.True(t, SumByDirection([]LedgerEntry{}, DirectionExpense, w).IsZero())
}

func TestTotalBalanceAllTime(t *testing.T) {
	entries := []LedgerEntry{
		entry(1, DirectionIncome, 100000, date(2020, time.January, 1), 1),
		entry(2, DirectionExpense, 40000, date(2024, time.March, 15), 1),
		entry(3, DirectionExpense, 90000, date(2019, time.June, 3), 1),
	}
	require.Equal(t, "-300.00", TotalBalance(entries).String())
	require.True(t, TotalBalance(nil).IsZero())
}

func TestRecentEntriesOrderingAndLimit(t *testing.T) {
	snap := Snapshot{
		OwnerID: 1,
		Entries: []LedgerEntry{
			entry(1, DirectionIncome, 100, date(2024, time.March, 1), 1),
			entry(2, DirectionExpense, 200, date(2024, time.March, 9), 1),
			entry(4, DirectionExpense, 300, date(2024, time.March, 9), 1), // same date, higher id wins
			entry(3, DirectionIncome, 400, date(2024, time.March, 12), 1),
		},
		Counterparties: []Counterparty{{ID: 1, Name: "Acme"}},
	}

	recent := RecentEntries(snap, 3)
	require.Len(t, recent, 3)
	require.Equal(t, int64(3), recent[0].Entry.ID)
	require.Equal(t, int64(4), recent[1].Entry.ID)
	require.Equal(t, int64(2), recent[2].Entry.ID)
	for _, r := range recent {
		require.Equal(t, "Acme", r.CounterpartyName)
	}
}

func TestRecentEntriesDanglingCounterparty(t *testing.T) {
	snap := Snapshot{
		OwnerID: 1,
		Entries: []LedgerEntry{
			entry(1, DirectionExpense, 500, date(2024, time.March, 2), 99), // counterparty deleted
		},
	}
	recent := RecentEntries(snap, 5)
	require.Len(t, recent, 1)
	require.Equal(t, UnknownCounterpartyName, recent[0].CounterpartyName)
}

func TestRecentEntriesEmptyAndInvalid(t *testing.T) {
	require.Empty(t, RecentEntries(Snapshot{}, 5))
	require.Empty(t, RecentEntries(acmeSnapshot(), 0))
}

func TestRecentEntriesDoesNotMutateSnapshot(t *testing.T) {
	snap := Snapshot{
		OwnerID: 1,
		Entries: []LedgerEntry{
			entry(1, DirectionIncome, 100, date(2024, time.March, 1), 1),
			entry(2, DirectionExpense, 200, date(2024, time.March, 9), 1),
		},
		Counterparties: []Counterparty{{ID: 1, Name: "Acme"}},
	}
	_ = RecentEntries(snap, 1)
	require.Equal(t, int64(1), snap.Entries[0].ID)
	require.Equal(t, int64(2), snap.Entries[1].ID)
}

func TestCounterpartyCountIndependentOfEntries(t *testing.T) {
	snap := Snapshot{
		Counterparties: []Counterparty{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	require.Equal(t, 3, CounterpartyCount(snap))
	require.Equal(t, 0, CounterpartyCount(Snapshot{}))
}

func TestLedgerEntryValidate(t *testing.T) {
	good := entry(1, DirectionIncome, 100, date(2024, time.March, 1), 1)
	require.NoError(t, good.Validate())

	bad := good
	bad.Direction = "TRANSFER"
	require.Error(t, bad.Validate())

	bad = good
	bad.Description = "  "
	require.Error(t, bad.Validate())

	bad = good
	bad.Amount = money.Zero
	require.Error(t, bad.Validate())

	bad = good
	bad.Amount = money.FromCents(-100)
	require.Error(t, bad.Validate())

	bad = good
	bad.CounterpartyID = 0
	require.Error(t, bad.Validate())
}

func TestKindFromDocumentType(t *testing.T) {
	k, err := KindFromDocumentType("cpf")
	require.NoError(t, err)
	require.Equal(t, KindIndividual, k)

	k, err = KindFromDocumentType("CNPJ")
	require.NoError(t, err)
	require.Equal(t, KindOrganization, k)

	_, err = KindFromDocumentType("RG")
	require.Error(t, err)
}
