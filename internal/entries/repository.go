package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/money"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// PGRepository persists ledger entries in Postgres. Amounts are stored as
// integer cents.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const entryColumns = `id, owner_id, direction, description, amount_cents,
	entry_date, due_date, status, COALESCE(payment_method, ''),
	COALESCE(notes, ''), COALESCE(attachment_ref, ''), counterparty_id,
	created_at, updated_at`

func scanEntry(row pgx.Row) (ledger.LedgerEntry, error) {
	var (
		e     ledger.LedgerEntry
		cents int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Direction, &e.Description, &cents,
		&e.EntryDate, &e.DueDate, &e.Status, &e.PaymentMethod,
		&e.Notes, &e.AttachmentRef, &e.CounterpartyID,
		&e.CreatedAt, &e.UpdatedAt)
	e.Amount = money.FromCents(cents)
	return e, err
}

// List builds the WHERE clause from the filter, one positional parameter per
// predicate.
func (r *PGRepository) List(ctx context.Context, ownerID int64, f Filter) ([]ledger.LedgerEntry, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}

	next := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.Direction != "" {
		next("direction = $%d", f.Direction)
	}
	if f.CounterpartyID > 0 {
		next("counterparty_id = $%d", f.CounterpartyID)
	}
	if f.Status != "" {
		next("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		next("entry_date >= $%d", ledger.DateOnly(f.From))
	}
	if !f.To.IsZero() {
		next("entry_date <= $%d", ledger.DateOnly(f.To))
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY entry_date DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var items []ledger.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, ownerID, id int64) (ledger.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.LedgerEntry{}, shared.ErrNotFound
	}
	if err != nil {
		return ledger.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (r *PGRepository) Create(ctx context.Context, e ledger.LedgerEntry) (ledger.LedgerEntry, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO ledger_entries
		   (owner_id, direction, description, amount_cents, entry_date, due_date,
		    status, payment_method, notes, counterparty_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10)
		 RETURNING id, created_at, updated_at`,
		e.OwnerID, e.Direction, e.Description, e.Amount.Cents, e.EntryDate,
		e.DueDate, e.Status, e.PaymentMethod, e.Notes, e.CounterpartyID)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return ledger.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	return e, nil
}

func (r *PGRepository) Update(ctx context.Context, e ledger.LedgerEntry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ledger_entries
		 SET direction = $1, description = $2, amount_cents = $3, entry_date = $4,
		     due_date = $5, status = $6, payment_method = NULLIF($7, ''),
		     notes = NULLIF($8, ''), attachment_ref = NULLIF($9, ''),
		     counterparty_id = $10, updated_at = now()
		 WHERE owner_id = $11 AND id = $12`,
		e.Direction, e.Description, e.Amount.Cents, e.EntryDate, e.DueDate,
		e.Status, e.PaymentMethod, e.Notes, e.AttachmentRef,
		e.CounterpartyID, e.OwnerID, e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM ledger_entries WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
