package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
)

type mockStore struct {
	snapshot ledger.Snapshot
	err      error
	calls    int
}

func (m *mockStore) SnapshotForOwner(ctx context.Context, ownerID int64) (ledger.Snapshot, error) {
	m.calls++
	if m.err != nil {
		return ledger.Snapshot{}, m.err
	}
	return m.snapshot, nil
}

func newTestService(t *testing.T, store Store) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewService(store, cache, Options{}), cache
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func marchSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		OwnerID: 1,
		Entries: []ledger.LedgerEntry{
			{
				ID: 1, OwnerID: 1, Direction: ledger.DirectionIncome, Description: "consultoria",
				Amount: money.FromCents(100000), EntryDate: date(2024, time.March, 10),
				Status: "paid", CounterpartyID: 1,
			},
			{
				ID: 2, OwnerID: 1, Direction: ledger.DirectionExpense, Description: "material",
				Amount: money.FromCents(40000), EntryDate: date(2024, time.March, 15),
				Status: "paid", CounterpartyID: 1,
			},
		},
		Counterparties: []ledger.Counterparty{
			{ID: 1, OwnerID: 1, Name: "Acme", Kind: ledger.KindOrganization, Document: "12345678000190"},
		},
	}
}

func TestReportScenario(t *testing.T) {
	store := &mockStore{snapshot: marchSnapshot()}
	svc, _ := newTestService(t, store)

	report, err := svc.Report(context.Background(), 1, date(2024, time.March, 20))
	require.NoError(t, err)

	require.Equal(t, 1, report.Summary.CounterpartyCount)
	require.Equal(t, "1000.00", report.Summary.MonthIncome.String())
	require.Equal(t, "400.00", report.Summary.MonthExpense.String())
	require.Equal(t, "600.00", report.Summary.MonthNet.String())
	require.Equal(t, "600.00", report.Summary.TotalBalance.String())

	require.Len(t, report.RecentEntries, 2)
	require.Equal(t, "Acme", report.RecentEntries[0].CounterpartyName)

	require.Len(t, report.TopExpenseCounterparties, 1)
	require.Equal(t, "Acme", report.TopExpenseCounterparties[0].Name)
	require.Equal(t, "400.00", report.TopExpenseCounterparties[0].Total.String())

	require.Len(t, report.CashFlowSeries, 6)
	require.Equal(t, "2024-03", report.CashFlowSeries[5].Label)
	require.Equal(t, "1000.00", report.CashFlowSeries[5].Income.String())
}

func TestReportEmptyOwner(t *testing.T) {
	store := &mockStore{snapshot: ledger.Snapshot{OwnerID: 2}}
	svc, _ := newTestService(t, store)

	report, err := svc.Report(context.Background(), 2, date(2024, time.March, 20))
	require.NoError(t, err)

	require.Equal(t, "0.00", report.Summary.TotalBalance.String())
	require.Equal(t, 0, report.Summary.CounterpartyCount)
	require.Empty(t, report.RecentEntries)
	require.Empty(t, report.TopExpenseCounterparties)
	require.Len(t, report.CashFlowSeries, 6)
	for _, p := range report.CashFlowSeries {
		require.True(t, p.Income.IsZero())
		require.True(t, p.Expense.IsZero())
	}
}

func TestReportIdempotent(t *testing.T) {
	store := &mockStore{snapshot: marchSnapshot()}
	svc, _ := newTestService(t, store)
	ctx := context.Background()
	ref := date(2024, time.March, 20)

	first, err := svc.Report(ctx, 1, ref)
	require.NoError(t, err)
	second, err := svc.Report(ctx, 1, ref)
	require.NoError(t, err)
	require.Equal(t, first, second)
	// Second call is served from cache.
	require.Equal(t, 1, store.calls)
}

func TestReportCacheBumpReloads(t *testing.T) {
	store := &mockStore{snapshot: marchSnapshot()}
	svc, cache := newTestService(t, store)
	ctx := context.Background()
	ref := date(2024, time.March, 20)

	_, err := svc.Report(ctx, 1, ref)
	require.NoError(t, err)
	require.Equal(t, 1, store.calls)

	require.NoError(t, cache.Bump(ctx))

	store.snapshot.Entries = append(store.snapshot.Entries, ledger.LedgerEntry{
		ID: 3, OwnerID: 1, Direction: ledger.DirectionExpense, Description: "aluguel",
		Amount: money.FromCents(20000), EntryDate: date(2024, time.March, 18),
		Status: "pending", CounterpartyID: 1,
	})

	report, err := svc.Report(ctx, 1, ref)
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
	require.Equal(t, "600.00", report.Summary.MonthExpense.String())
}

func TestReportDanglingCounterparty(t *testing.T) {
	snap := marchSnapshot()
	// The counterparty was deleted concurrently; entries still reference it.
	snap.Counterparties = nil
	store := &mockStore{snapshot: snap}
	svc, _ := newTestService(t, store)

	report, err := svc.Report(context.Background(), 1, date(2024, time.March, 20))
	require.NoError(t, err)

	require.Equal(t, ledger.UnknownCounterpartyName, report.RecentEntries[0].CounterpartyName)
	// The dangling amount still counts toward the month summary and is
	// attributed to the sentinel group.
	require.Equal(t, "400.00", report.Summary.MonthExpense.String())
	require.Len(t, report.TopExpenseCounterparties, 1)
	require.Equal(t, int64(0), report.TopExpenseCounterparties[0].CounterpartyID)
	require.Equal(t, "400.00", report.TopExpenseCounterparties[0].Total.String())
}

func TestReportInvalidInput(t *testing.T) {
	store := &mockStore{snapshot: marchSnapshot()}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Report(ctx, 0, date(2024, time.March, 20))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Report(ctx, 1, time.Time{})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Nothing was fetched for rejected input.
	require.Equal(t, 0, store.calls)

	bad := NewService(store, nil, Options{RecentLimit: -1})
	_, err = bad.Report(ctx, 1, date(2024, time.March, 20))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestReportStoreFailureIsAtomic(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &mockStore{err: storeErr}
	svc, _ := newTestService(t, store)

	report, err := svc.Report(context.Background(), 1, date(2024, time.March, 20))
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, Report{}, report)
}

func TestReportWithoutCache(t *testing.T) {
	store := &mockStore{snapshot: marchSnapshot()}
	svc := NewService(store, nil, Options{})

	_, err := svc.Report(context.Background(), 1, date(2024, time.March, 20))
	require.NoError(t, err)
	_, err = svc.Report(context.Background(), 1, date(2024, time.March, 20))
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}
