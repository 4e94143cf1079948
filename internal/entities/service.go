// Package entities manages the counterparties ledger entries are attributed
// to: people (CPF) and organizations (CNPJ).
package entities

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// CreateInput captures counterparty creation input.
type CreateInput struct {
	OwnerID      int64
	Name         string
	DocumentType string
	Document     string
	TradeName    string
	Phone        string
	Email        string
}

// Validate ensures correctness before touching storage.
func (in CreateInput) Validate() error {
	if in.OwnerID <= 0 {
		return fmt.Errorf("%w: owner required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Document) == "" {
		return fmt.Errorf("%w: document required", shared.ErrValidation)
	}
	if _, err := ledger.KindFromDocumentType(in.DocumentType); err != nil {
		return fmt.Errorf("%w: document type must be CPF or CNPJ", shared.ErrValidation)
	}
	return nil
}

// Repository defines persistence operations for counterparties.
type Repository interface {
	List(ctx context.Context, ownerID int64) ([]ledger.Counterparty, error)
	Get(ctx context.Context, ownerID, id int64) (ledger.Counterparty, error)
	Create(ctx context.Context, c ledger.Counterparty) (ledger.Counterparty, error)
	Update(ctx context.Context, c ledger.Counterparty) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type cacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service wraps counterparty business rules. Writes invalidate cached
// dashboard reports since the counterparty count and names feed them.
type Service struct {
	repo     Repository
	cache    cacheInvalidator
	collator *collate.Collator
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache cacheInvalidator) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		collator: collate.New(language.BrazilianPortuguese),
	}
}

// List returns the owner's counterparties ordered by display name.
func (s *Service) List(ctx context.Context, ownerID int64) ([]ledger.Counterparty, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner required", shared.ErrValidation)
	}
	items, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if c := s.collator.CompareString(items[i].Name, items[j].Name); c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Get fetches one counterparty scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (ledger.Counterparty, error) {
	if ownerID <= 0 || id <= 0 {
		return ledger.Counterparty{}, fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Create stores a new counterparty. Document uniqueness is global across all
// owners and enforced by the store; a violation surfaces as ErrDuplicate.
func (s *Service) Create(ctx context.Context, in CreateInput) (ledger.Counterparty, error) {
	if err := in.Validate(); err != nil {
		return ledger.Counterparty{}, err
	}
	kind, _ := ledger.KindFromDocumentType(in.DocumentType)
	created, err := s.repo.Create(ctx, ledger.Counterparty{
		OwnerID:   in.OwnerID,
		Name:      strings.TrimSpace(in.Name),
		Kind:      kind,
		Document:  strings.TrimSpace(in.Document),
		TradeName: strings.TrimSpace(in.TradeName),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
	})
	if err != nil {
		return ledger.Counterparty{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update applies changes to an existing counterparty.
func (s *Service) Update(ctx context.Context, id int64, in CreateInput) (ledger.Counterparty, error) {
	if id <= 0 {
		return ledger.Counterparty{}, fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	if err := in.Validate(); err != nil {
		return ledger.Counterparty{}, err
	}
	current, err := s.repo.Get(ctx, in.OwnerID, id)
	if err != nil {
		return ledger.Counterparty{}, err
	}
	kind, _ := ledger.KindFromDocumentType(in.DocumentType)
	current.Name = strings.TrimSpace(in.Name)
	current.Kind = kind
	current.Document = strings.TrimSpace(in.Document)
	current.TradeName = strings.TrimSpace(in.TradeName)
	current.Phone = strings.TrimSpace(in.Phone)
	current.Email = strings.TrimSpace(in.Email)
	if err := s.repo.Update(ctx, current); err != nil {
		return ledger.Counterparty{}, err
	}
	s.invalidate(ctx)
	return current, nil
}

// Delete removes a counterparty. Ledger entries referencing it survive and
// surface with the sentinel name in reports.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	if ownerID <= 0 || id <= 0 {
		return fmt.Errorf("%w: invalid id", shared.ErrValidation)
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
