// Package entries manages the income and expense records behind the
// dashboard: CRUD, list filtering, and receipt attachments.
package entries

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// Input carries the fields a client may set on create or update. Amount comes
// in as the decimal string the client typed.
type Input struct {
	OwnerID        int64
	Direction      string
	Description    string
	Amount         string
	EntryDate      time.Time
	DueDate        *time.Time
	Status         string
	PaymentMethod  string
	Notes          string
	CounterpartyID int64
}

// Filter narrows a list query. Zero values mean "no constraint".
type Filter struct {
	Direction      ledger.Direction
	CounterpartyID int64
	Status         string
	From           time.Time
	To             time.Time
}

// Repository defines persistence for ledger entries.
type Repository interface {
	List(ctx context.Context, ownerID int64, f Filter) ([]ledger.LedgerEntry, error)
	Get(ctx context.Context, ownerID, id int64) (ledger.LedgerEntry, error)
	Create(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error)
	Update(ctx context.Context, e ledger.LedgerEntry) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type counterpartyGetter interface {
	Get(ctx context.Context, ownerID, id int64) (ledger.Counterparty, error)
}

type attachmentStore interface {
	Save(src io.Reader, originalName string) (string, error)
	Remove(ref string) error
}

type cacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service wraps entry business rules. Every write bumps the dashboard cache
// version so stale reports are never served.
type Service struct {
	repo           Repository
	counterparties counterpartyGetter
	attachments    attachmentStore
	cache          cacheInvalidator
}

// NewService constructs a Service. attachments and cache may be nil.
func NewService(repo Repository, counterparties counterpartyGetter, attachments attachmentStore, cache cacheInvalidator) *Service {
	return &Service{repo: repo, counterparties: counterparties, attachments: attachments, cache: cache}
}

func (s *Service) build(ctx context.Context, in Input) (ledger.LedgerEntry, error) {
	amount, err := money.ParseDecimal(in.Amount)
	if err != nil {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: amount: %v", shared.ErrValidation, err)
	}
	e := ledger.LedgerEntry{
		OwnerID:        in.OwnerID,
		Direction:      ledger.Direction(strings.ToUpper(strings.TrimSpace(in.Direction))),
		Description:    strings.TrimSpace(in.Description),
		Amount:         amount,
		EntryDate:      ledger.DateOnly(in.EntryDate),
		DueDate:        in.DueDate,
		Status:         strings.TrimSpace(in.Status),
		PaymentMethod:  strings.TrimSpace(in.PaymentMethod),
		Notes:          strings.TrimSpace(in.Notes),
		CounterpartyID: in.CounterpartyID,
	}
	if e.DueDate != nil {
		d := ledger.DateOnly(*e.DueDate)
		e.DueDate = &d
	}
	if err := e.Validate(); err != nil {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	// Counterparty must exist under the same owner; a foreign one is
	// indistinguishable from a missing one.
	if _, err := s.counterparties.Get(ctx, in.OwnerID, in.CounterpartyID); err != nil {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: counterparty not found", shared.ErrValidation)
	}
	return e, nil
}

// Create stores a new entry.
func (s *Service) Create(ctx context.Context, in Input) (ledger.LedgerEntry, error) {
	if in.OwnerID <= 0 {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: owner required", shared.ErrValidation)
	}
	e, err := s.build(ctx, in)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Get fetches one entry scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (ledger.LedgerEntry, error) {
	if ownerID <= 0 || id <= 0 {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, ownerID int64, f Filter) ([]ledger.LedgerEntry, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner required", shared.ErrValidation)
	}
	if f.Direction != "" && !f.Direction.Valid() {
		return nil, fmt.Errorf("%w: direction must be INCOME or EXPENSE", shared.ErrValidation)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fmt.Errorf("%w: date range end before start", shared.ErrValidation)
	}
	return s.repo.List(ctx, ownerID, f)
}

// Update replaces the mutable fields of an entry. The attachment reference is
// managed separately and survives the update.
func (s *Service) Update(ctx context.Context, id int64, in Input) (ledger.LedgerEntry, error) {
	if in.OwnerID <= 0 || id <= 0 {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	current, err := s.repo.Get(ctx, in.OwnerID, id)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	e, err := s.build(ctx, in)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	e.ID = current.ID
	e.AttachmentRef = current.AttachmentRef
	e.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, e); err != nil {
		return ledger.LedgerEntry{}, err
	}
	s.invalidate(ctx)
	return e, nil
}

// Delete removes an entry and its attachment file, if any.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if ownerID <= 0 || id <= 0 {
		return fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	current, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	if current.AttachmentRef != "" && s.attachments != nil {
		_ = s.attachments.Remove(current.AttachmentRef)
	}
	s.invalidate(ctx)
	return nil
}

// Attach stores a receipt for the entry, replacing and deleting any previous
// one.
func (s *Service) Attach(ctx context.Context, ownerID, id int64, src io.Reader, filename string) (ledger.LedgerEntry, error) {
	if s.attachments == nil {
		return ledger.LedgerEntry{}, fmt.Errorf("%w: attachments not configured", shared.ErrValidation)
	}
	current, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	ref, err := s.attachments.Save(src, filename)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	previous := current.AttachmentRef
	current.AttachmentRef = ref
	if err := s.repo.Update(ctx, current); err != nil {
		_ = s.attachments.Remove(ref)
		return ledger.LedgerEntry{}, err
	}
	if previous != "" {
		_ = s.attachments.Remove(previous)
	}
	s.invalidate(ctx)
	return current, nil
}

// Detach removes the entry's receipt.
func (s *Service) Detach(ctx context.Context, ownerID, id int64) (ledger.LedgerEntry, error) {
	current, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return ledger.LedgerEntry{}, err
	}
	if current.AttachmentRef == "" {
		return current, nil
	}
	ref := current.AttachmentRef
	current.AttachmentRef = ""
	if err := s.repo.Update(ctx, current); err != nil {
		return ledger.LedgerEntry{}, err
	}
	if s.attachments != nil {
		_ = s.attachments.Remove(ref)
	}
	s.invalidate(ctx)
	return current, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
