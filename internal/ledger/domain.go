// Package ledger holds the domain model and the aggregation engine for the
// financial dashboard. Everything here is a pure function of a Snapshot: the
// engine owns no state, performs no I/O, and yields the same output for the
// same input every time.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/caixaclaro/caixaclaro/internal/money"
)

// Direction classifies a ledger entry as income or expense.
type Direction string

const (
	// DirectionIncome marks an entry that increases the balance.
	DirectionIncome Direction = "INCOME"
	// DirectionExpense marks an entry that decreases the balance.
	DirectionExpense Direction = "EXPENSE"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// CounterpartyKind distinguishes people from organizations, derived from the
// Brazilian document type the counterparty registered with.
type CounterpartyKind string

const (
	// KindIndividual maps from a CPF document.
	KindIndividual CounterpartyKind = "INDIVIDUAL"
	// KindOrganization maps from a CNPJ document.
	KindOrganization CounterpartyKind = "ORGANIZATION"
)

// Valid reports whether the kind is one of the two enumerated values.
func (k CounterpartyKind) Valid() bool {
	return k == KindIndividual || k == KindOrganization
}

// KindFromDocumentType converts a document-type tag into a kind.
func KindFromDocumentType(tag string) (CounterpartyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "CPF":
		return KindIndividual, nil
	case "CNPJ":
		return KindOrganization, nil
	default:
		return "", errors.New("ledger: unknown document type")
	}
}

// UnknownCounterpartyName is substituted when an entry references a
// counterparty that no longer exists. The entry still counts toward every
// total so the report reconciles.
const UnknownCounterpartyName = "unknown counterparty"

// Counterparty is a person or organization a ledger entry is attributed to.
type Counterparty struct {
	ID        int64            `json:"id"`
	OwnerID   int64            `json:"-"`
	Name      string           `json:"name"`
	Kind      CounterpartyKind `json:"kind"`
	Document  string           `json:"document"`
	TradeName string           `json:"trade_name,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	Email     string           `json:"email,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// LedgerEntry is one income or expense fact.
type LedgerEntry struct {
	ID             int64       `json:"id"`
	OwnerID        int64       `json:"-"`
	Direction      Direction   `json:"direction"`
	Description    string      `json:"description"`
	Amount         money.Money `json:"amount"`
	EntryDate      time.Time   `json:"entry_date"`
	DueDate        *time.Time  `json:"due_date,omitempty"`
	Status         string      `json:"status"`
	PaymentMethod  string      `json:"payment_method,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	AttachmentRef  string      `json:"attachment_ref,omitempty"`
	CounterpartyID int64       `json:"counterparty_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Validate checks the invariants every stored entry must satisfy.
func (e LedgerEntry) Validate() error {
	if !e.Direction.Valid() {
		return errors.New("ledger: direction must be INCOME or EXPENSE")
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("ledger: description required")
	}
	if !e.Amount.Positive() {
		return errors.New("ledger: amount must be positive")
	}
	if e.EntryDate.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if e.CounterpartyID <= 0 {
		return errors.New("ledger: counterparty required")
	}
	return nil
}

// Snapshot is the consistent view of one owner's data a single report
// computation operates on. Both slices come from the same store read.
type Snapshot struct {
	OwnerID        int64
	Entries        []LedgerEntry
	Counterparties []Counterparty
}

// NameIndex builds a counterparty id → display name lookup.
func (s Snapshot) NameIndex() map[int64]string {
	idx := make(map[int64]string, len(s.Counterparties))
	for _, c := range s.Counterparties {
		idx[c.ID] = c.Name
	}
	return idx
}
