package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
	"github.com/caixaclaro/caixaclaro/internal/platform/db"
)

// Repository reads owner snapshots from PostgreSQL. Entries and
// counterparties are fetched inside one repeatable-read, read-only
// transaction so the whole report observes a single snapshot. All filtering,
// grouping and ordering happens in the engine, not in SQL, so behavior does
// not depend on the storage engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SnapshotForOwner loads every entry and counterparty for the owner.
func (r *Repository) SnapshotForOwner(ctx context.Context, ownerID int64) (ledger.Snapshot, error) {
	snapshot := ledger.Snapshot{OwnerID: ownerID}

	err := db.WithSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		entries, err := loadEntries(ctx, tx, ownerID)
		if err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		counterparties, err := loadCounterparties(ctx, tx, ownerID)
		if err != nil {
			return fmt.Errorf("load counterparties: %w", err)
		}
		snapshot.Entries = entries
		snapshot.Counterparties = counterparties
		return nil
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return snapshot, nil
}

func loadEntries(ctx context.Context, tx pgx.Tx, ownerID int64) ([]ledger.LedgerEntry, error) {
	const query = `
		SELECT id, owner_id, direction, description, amount_cents, entry_date,
		       due_date, status, COALESCE(payment_method, ''), COALESCE(notes, ''),
		       COALESCE(attachment_ref, ''), counterparty_id, created_at, updated_at
		FROM ledger_entries
		WHERE owner_id = $1`

	rows, err := tx.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.LedgerEntry
	for rows.Next() {
		var e ledger.LedgerEntry
		var cents int64
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Direction, &e.Description, &cents,
			&e.EntryDate, &e.DueDate, &e.Status, &e.PaymentMethod, &e.Notes,
			&e.AttachmentRef, &e.CounterpartyID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Amount = money.FromCents(cents)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func loadCounterparties(ctx context.Context, tx pgx.Tx, ownerID int64) ([]ledger.Counterparty, error) {
	const query = `
		SELECT id, owner_id, name, kind, document, COALESCE(trade_name, ''),
		       COALESCE(phone, ''), COALESCE(email, ''), created_at, updated_at
		FROM counterparties
		WHERE owner_id = $1`

	rows, err := tx.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counterparties []ledger.Counterparty
	for rows.Next() {
		var c ledger.Counterparty
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Document,
			&c.TradeName, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		counterparties = append(counterparties, c)
	}
	return counterparties, rows.Err()
}

var _ Store = (*Repository)(nil)
