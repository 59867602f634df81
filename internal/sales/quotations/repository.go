package quotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

// Repository persists quotations scoped to their owning user. Line items are
// stored as a jsonb document on the row.
type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context, userID uuid.UUID) ([]Quotation, error)
	ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Quotation, error)
	Update(ctx context.Context, q *Quotation) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed quotation repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const quotationColumns = `id, user_id, client_id, quotation_number, date, valid_until,
	items, subtotal, tax_rate, tax_amount, total, status, notes, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.UserID, &q.ClientID, &q.QuotationNumber, &q.Date, &q.ValidUntil,
		&q.Items, &q.Subtotal, &q.TaxRate, &q.TaxAmount, &q.Total, &q.Status, &q.Notes,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan quotation: %w", err)
	}
	return &q, nil
}

func (r *pgRepository) Create(ctx context.Context, q *Quotation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quotations (id, user_id, client_id, quotation_number, date, valid_until,
			items, subtotal, tax_rate, tax_amount, total, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		q.ID, q.UserID, q.ClientID, q.QuotationNumber, q.Date, q.ValidUntil,
		q.Items, q.Subtotal, q.TaxRate, q.TaxAmount, q.Total, q.Status, q.Notes,
		q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Quotation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE user_id = $1 AND id = $2`, userID, id)
	return scanQuotation(row)
}

func (r *pgRepository) List(ctx context.Context, userID uuid.UUID) ([]Quotation, error) {
	return r.query(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (r *pgRepository) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Quotation, error) {
	return r.query(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE user_id = $1 AND client_id = $2 ORDER BY created_at DESC`,
		userID, clientID)
}

func (r *pgRepository) query(ctx context.Context, sql string, args ...any) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	var list []Quotation
	for rows.Next() {
		var q Quotation
		err := rows.Scan(&q.ID, &q.UserID, &q.ClientID, &q.QuotationNumber, &q.Date, &q.ValidUntil,
			&q.Items, &q.Subtotal, &q.TaxRate, &q.TaxAmount, &q.Total, &q.Status, &q.Notes,
			&q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, q *Quotation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations SET client_id = $3, date = $4, valid_until = $5, items = $6,
			subtotal = $7, tax_rate = $8, tax_amount = $9, total = $10, status = $11,
			notes = $12, updated_at = $13
		WHERE user_id = $1 AND id = $2`,
		q.UserID, q.ID, q.ClientID, q.Date, q.ValidUntil, q.Items,
		q.Subtotal, q.TaxRate, q.TaxAmount, q.Total, q.Status, q.Notes, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quotations WHERE user_id = $1 AND client_id = $2)`,
		userID, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quotations for client: %w", err)
	}
	return exists, nil
}
