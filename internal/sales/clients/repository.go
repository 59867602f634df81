package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

// Repository persists clients scoped to their owning user.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Client, error)
	List(ctx context.Context, userID uuid.UUID) ([]Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	EmailExists(ctx context.Context, userID uuid.UUID, email string, excludeID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed client repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const clientColumns = `id, user_id, name, email, phone, company_name, company_address, notes, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone,
		&c.CompanyName, &c.CompanyAddress, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return &c, nil
}

func (r *pgRepository) Create(ctx context.Context, c *Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, user_id, name, email, phone, company_name, company_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.CompanyName, c.CompanyAddress, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = $1 AND id = $2`, userID, id)
	return scanClient(row)
}

func (r *pgRepository) List(ctx context.Context, userID uuid.UUID) ([]Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = $1 ORDER BY name, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var list []Client
	for rows.Next() {
		var c Client
		err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone,
			&c.CompanyName, &c.CompanyAddress, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, c *Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET name = $3, email = $4, phone = $5, company_name = $6,
			company_address = $7, notes = $8, updated_at = $9
		WHERE user_id = $1 AND id = $2`,
		c.UserID, c.ID, c.Name, c.Email, c.Phone, c.CompanyName, c.CompanyAddress, c.Notes, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) EmailExists(ctx context.Context, userID uuid.UUID, email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM clients WHERE user_id = $1 AND email = $2 AND id <> $3
		)`, userID, email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check client email: %w", err)
	}
	return exists, nil
}
