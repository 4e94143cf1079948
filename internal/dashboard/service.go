package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
)

// Store supplies the consistent snapshot a report computation runs on. Both
// entry and counterparty reads must come from the same database snapshot or
// the summary and the breakdowns can visibly disagree.
type Store interface {
	SnapshotForOwner(ctx context.Context, ownerID int64) (ledger.Snapshot, error)
}

// Options tune the report shape. Zero values fall back to the defaults the
// web dashboard was designed around.
type Options struct {
	RecentLimit  int
	TopLimit     int
	SeriesMonths int
}

const (
	defaultRecentLimit  = 5
	defaultTopLimit     = 5
	defaultSeriesMonths = 6
)

func (o Options) withDefaults() Options {
	if o.RecentLimit == 0 {
		o.RecentLimit = defaultRecentLimit
	}
	if o.TopLimit == 0 {
		o.TopLimit = defaultTopLimit
	}
	if o.SeriesMonths == 0 {
		o.SeriesMonths = defaultSeriesMonths
	}
	return o
}

// Service assembles dashboard reports, caching them per owner and reference
// date. The service holds no mutable state of its own.
type Service struct {
	store Store
	cache *Cache
	opts  Options
}

// NewService wires a Store with the cache helper.
func NewService(store Store, cache *Cache, opts Options) *Service {
	return &Service{store: store, cache: cache, opts: opts.withDefaults()}
}

// Report computes the dashboard for one owner at the given reference date.
// Input is validated before anything is fetched; a store failure aborts the
// whole report, partial results are never returned.
func (s *Service) Report(ctx context.Context, ownerID int64, ref time.Time) (Report, error) {
	if ownerID <= 0 {
		return Report{}, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	if ref.IsZero() {
		return Report{}, fmt.Errorf("%w: reference date required", ErrInvalidInput)
	}
	if s.opts.RecentLimit <= 0 || s.opts.TopLimit <= 0 || s.opts.SeriesMonths <= 0 {
		return Report{}, fmt.Errorf("%w: limits must be positive", ErrInvalidInput)
	}
	ref = ledger.DateOnly(ref)

	loader := func(ctx context.Context) (interface{}, error) {
		return s.assemble(ctx, ownerID, ref)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Report{}, err
		}
		return value.(Report), nil
	}

	key, err := s.cache.BuildKey(ctx, reportKey(ownerID, ref))
	if err != nil {
		return Report{}, err
	}
	var report Report
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Warm precomputes and caches the report for an owner, used by the
// background warmup job.
func (s *Service) Warm(ctx context.Context, ownerID int64, ref time.Time) error {
	_, err := s.Report(ctx, ownerID, ref)
	return err
}

func (s *Service) assemble(ctx context.Context, ownerID int64, ref time.Time) (Report, error) {
	snapshot, err := s.store.SnapshotForOwner(ctx, ownerID)
	if err != nil {
		return Report{}, fmt.Errorf("dashboard: load snapshot: %w", err)
	}

	window := ledger.MonthWindow(ref)
	summary := ledger.MonthSummary(snapshot.Entries, ref)

	return Report{
		Summary: SummaryCard{
			CounterpartyCount: ledger.CounterpartyCount(snapshot),
			MonthIncome:       summary.Income,
			MonthExpense:      summary.Expense,
			MonthNet:          summary.Net,
			TotalBalance:      ledger.TotalBalance(snapshot.Entries),
		},
		RecentEntries:            ledger.RecentEntries(snapshot, s.opts.RecentLimit),
		TopExpenseCounterparties: ledger.TopExpenseCounterparties(snapshot, window, s.opts.TopLimit),
		CashFlowSeries:           ledger.CashFlowSeries(snapshot.Entries, ref, s.opts.SeriesMonths),
	}, nil
}
