package entities

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caixaclaro/caixaclaro/internal/ledger"
	"github.com/caixaclaro/caixaclaro/internal/shared"
)

// PGRepository persists counterparties in Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const counterpartyColumns = `id, owner_id, name, kind, document,
	COALESCE(trade_name, ''), COALESCE(phone, ''), COALESCE(email, ''),
	created_at, updated_at`

func scanCounterparty(row pgx.Row) (ledger.Counterparty, error) {
	var c ledger.Counterparty
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Document,
		&c.TradeName, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PGRepository) List(ctx context.Context, ownerID int64) ([]ledger.Counterparty, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+counterpartyColumns+` FROM counterparties WHERE owner_id = $1`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list counterparties: %w", err)
	}
	defer rows.Close()

	var items []ledger.Counterparty
	for rows.Next() {
		c, err := scanCounterparty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan counterparty: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, ownerID, id int64) (ledger.Counterparty, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+counterpartyColumns+` FROM counterparties WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	c, err := scanCounterparty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Counterparty{}, shared.ErrNotFound
	}
	if err != nil {
		return ledger.Counterparty{}, fmt.Errorf("get counterparty: %w", err)
	}
	return c, nil
}

func (r *PGRepository) Create(ctx context.Context, c ledger.Counterparty) (ledger.Counterparty, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO counterparties (owner_id, name, kind, document, trade_name, phone, email)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		 RETURNING id, created_at, updated_at`,
		c.OwnerID, c.Name, c.Kind, c.Document, c.TradeName, c.Phone, c.Email)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ledger.Counterparty{}, fmt.Errorf("%w: document already registered", shared.ErrDuplicate)
		}
		return ledger.Counterparty{}, fmt.Errorf("create counterparty: %w", err)
	}
	return c, nil
}

func (r *PGRepository) Update(ctx context.Context, c ledger.Counterparty) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE counterparties
		 SET name = $1, kind = $2, document = $3, trade_name = NULLIF($4, ''),
		     phone = NULLIF($5, ''), email = NULLIF($6, ''), updated_at = now()
		 WHERE owner_id = $7 AND id = $8`,
		c.Name, c.Kind, c.Document, c.TradeName, c.Phone, c.Email, c.OwnerID, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: document already registered", shared.ErrDuplicate)
		}
		return fmt.Errorf("update counterparty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM counterparties WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete counterparty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
