package entries

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

type memoryRepo struct {
	items  map[int64]ledger.LedgerEntry
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]ledger.LedgerEntry{}, nextID: 1}
}

func (m *memoryRepo) List(_ context.Context, ownerID int64, f Filter) ([]ledger.LedgerEntry, error) {
	var out []ledger.LedgerEntry
	for _, e := range m.items {
		if e.OwnerID != ownerID {
			continue
		}
		if f.Direction != "" && e.Direction != f.Direction {
			continue
		}
		if f.CounterpartyID > 0 && e.CounterpartyID != f.CounterpartyID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && e.EntryDate.Before(ledger.DateOnly(f.From)) {
			continue
		}
		if !f.To.IsZero() && e.EntryDate.After(ledger.DateOnly(f.To)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (ledger.LedgerEntry, error) {
	e, ok := m.items[id]
	if !ok || e.OwnerID != ownerID {
		return ledger.LedgerEntry{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) Create(_ context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	e.ID = m.nextID
	m.nextID++
	m.items[e.ID] = e
	return e, nil
}

func (m *memoryRepo) Update(_ context.Context, e ledger.LedgerEntry) error {
	existing, ok := m.items[e.ID]
	if !ok || existing.OwnerID != e.OwnerID {
		return shared.ErrNotFound
	}
	m.items[e.ID] = e
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, ownerID, id int64) error {
	e, ok := m.items[id]
	if !ok || e.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type fixedCounterparties map[int64]int64 // counterparty id -> owner id

func (f fixedCounterparties) Get(_ context.Context, ownerID, id int64) (ledger.Counterparty, error) {
	if owner, ok := f[id]; ok && owner == ownerID {
		return ledger.Counterparty{ID: id, OwnerID: ownerID}, nil
	}
	return ledger.Counterparty{}, shared.ErrNotFound
}

type fakeAttachments struct {
	saved   map[string]string
	removed []string
	nextRef int
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{saved: map[string]string{}}
}

func (f *fakeAttachments) Save(src io.Reader, name string) (string, error) {
	body, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	f.nextRef++
	ref := name + "-" + strings.Repeat("x", f.nextRef)
	f.saved[ref] = string(body)
	return ref, nil
}

func (f *fakeAttachments) Remove(ref string) error {
	delete(f.saved, ref)
	f.removed = append(f.removed, ref)
	return nil
}

type countingBumper struct{ bumps int }

func (b *countingBumper) Bump(context.Context) error {
	b.bumps++
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validInput() Input {
	return Input{
		OwnerID:        1,
		Direction:      "expense",
		Description:    "office supplies",
		Amount:         "149,90",
		EntryDate:      date(2026, time.March, 10),
		Status:         "PAID",
		CounterpartyID: 7,
	}
}

func newTestService(repo *memoryRepo, att attachmentStore, bumper cacheInvalidator) *Service {
	cps := fixedCounterparties{7: 1, 9: 2}
	return NewService(repo, cps, att, bumper)
}

func TestServiceCreateParsesAmountAndBumps(t *testing.T) {
	repo := newMemoryRepo()
	bumper := &countingBumper{}
	svc := newTestService(repo, nil, bumper)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, money.FromCents(14990), created.Amount)
	require.Equal(t, ledger.DirectionExpense, created.Direction)
	require.Equal(t, 1, bumper.bumps)
}

func TestServiceCreateRejectsForeignCounterparty(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil)

	in := validInput()
	in.CounterpartyID = 9 // belongs to owner 2
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil)

	bad := func(mutate func(*Input)) Input {
		in := validInput()
		mutate(&in)
		return in
	}
	cases := []Input{
		bad(func(in *Input) { in.Amount = "abc" }),
		bad(func(in *Input) { in.Amount = "0" }),
		bad(func(in *Input) { in.Amount = "-5.00" }),
		bad(func(in *Input) { in.Direction = "TRANSFER" }),
		bad(func(in *Input) { in.Description = "  " }),
		bad(func(in *Input) { in.EntryDate = time.Time{} }),
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestServiceListFilters(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil)

	mk := func(direction, status string, day int) {
		in := validInput()
		in.Direction = direction
		in.Status = status
		in.EntryDate = date(2026, time.March, day)
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}
	mk("INCOME", "PAID", 1)
	mk("EXPENSE", "PAID", 10)
	mk("EXPENSE", "PENDING", 20)

	items, err := svc.List(context.Background(), 1, Filter{Direction: ledger.DirectionExpense})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = svc.List(context.Background(), 1, Filter{Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = svc.List(context.Background(), 1, Filter{
		From: date(2026, time.March, 5),
		To:   date(2026, time.March, 15),
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.List(context.Background(), 1, Filter{Direction: "WEIRD"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.List(context.Background(), 1, Filter{
		From: date(2026, time.March, 15),
		To:   date(2026, time.March, 5),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestServiceUpdateKeepsAttachment(t *testing.T) {
	repo := newMemoryRepo()
	att := newFakeAttachments()
	svc := newTestService(repo, att, nil)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	withFile, err := svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("receipt"), "nota.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, withFile.AttachmentRef)

	in := validInput()
	in.Description = "updated supplies"
	updated, err := svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "updated supplies", updated.Description)
	require.Equal(t, withFile.AttachmentRef, updated.AttachmentRef)
}

func TestServiceAttachReplacesPrevious(t *testing.T) {
	repo := newMemoryRepo()
	att := newFakeAttachments()
	svc := newTestService(repo, att, nil)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	first, err := svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("v1"), "a.pdf")
	require.NoError(t, err)
	second, err := svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("v2"), "b.pdf")
	require.NoError(t, err)

	require.NotEqual(t, first.AttachmentRef, second.AttachmentRef)
	require.Contains(t, att.removed, first.AttachmentRef)
	require.NotContains(t, att.removed, second.AttachmentRef)
}

func TestServiceAttachDetachBumpCache(t *testing.T) {
	repo := newMemoryRepo()
	att := newFakeAttachments()
	bumper := &countingBumper{}
	svc := newTestService(repo, att, bumper)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, 1, bumper.bumps)

	_, err = svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("receipt"), "nota.pdf")
	require.NoError(t, err)
	require.Equal(t, 2, bumper.bumps)

	_, err = svc.Detach(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Equal(t, 3, bumper.bumps)

	// No attachment left, so there is nothing to invalidate.
	_, err = svc.Detach(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Equal(t, 3, bumper.bumps)
}

func TestServiceDeleteRemovesAttachment(t *testing.T) {
	repo := newMemoryRepo()
	att := newFakeAttachments()
	bumper := &countingBumper{}
	svc := newTestService(repo, att, bumper)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	attached, err := svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("receipt"), "nota.pdf")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, created.ID))
	require.Contains(t, att.removed, attached.AttachmentRef)
	require.Empty(t, att.saved)

	_, err = svc.Get(context.Background(), 1, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestServiceDetach(t *testing.T) {
	repo := newMemoryRepo()
	att := newFakeAttachments()
	svc := newTestService(repo, att, nil)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	// Detaching with no attachment is a no-op.
	got, err := svc.Detach(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Empty(t, got.AttachmentRef)

	attached, err := svc.Attach(context.Background(), 1, created.ID,
		strings.NewReader("receipt"), "nota.pdf")
	require.NoError(t, err)

	got, err = svc.Detach(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Empty(t, got.AttachmentRef)
	require.Contains(t, att.removed, attached.AttachmentRef)
}
