package pumps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

// Repository persists pump repair jobs scoped to their owning user. Parts
// used are stored as a jsonb document on the row.
type Repository interface {
	Create(ctx context.Context, p *Pump) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Pump, error)
	List(ctx context.Context, userID uuid.UUID) ([]Pump, error)
	ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Pump, error)
	Update(ctx context.Context, p *Pump) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed pump repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const pumpColumns = `id, user_id, client_id, invoice_id, pump_model, serial_number, brand, status,
	date_received, date_delivered, issue_description, diagnosis_notes, repair_notes,
	parts_used, estimated_cost, actual_cost, labor_cost, total_cost, created_at, updated_at`

func scanPump(row pgx.Row) (*Pump, error) {
	var p Pump
	err := row.Scan(&p.ID, &p.UserID, &p.ClientID, &p.InvoiceID, &p.PumpModel, &p.SerialNumber,
		&p.Brand, &p.Status, &p.DateReceived, &p.DateDelivered, &p.IssueDescription,
		&p.DiagnosisNotes, &p.RepairNotes, &p.PartsUsed, &p.EstimatedCost, &p.ActualCost,
		&p.LaborCost, &p.TotalCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan pump: %w", err)
	}
	return &p, nil
}

func (r *pgRepository) Create(ctx context.Context, p *Pump) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pumps (id, user_id, client_id, invoice_id, pump_model, serial_number, brand, status,
			date_received, date_delivered, issue_description, diagnosis_notes, repair_notes,
			parts_used, estimated_cost, actual_cost, labor_cost, total_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.UserID, p.ClientID, p.InvoiceID, p.PumpModel, p.SerialNumber, p.Brand, p.Status,
		p.DateReceived, p.DateDelivered, p.IssueDescription, p.DiagnosisNotes, p.RepairNotes,
		p.PartsUsed, p.EstimatedCost, p.ActualCost, p.LaborCost, p.TotalCost, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pump: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Pump, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pumpColumns+` FROM pumps WHERE user_id = $1 AND id = $2`, userID, id)
	return scanPump(row)
}

func (r *pgRepository) List(ctx context.Context, userID uuid.UUID) ([]Pump, error) {
	return r.query(ctx,
		`SELECT `+pumpColumns+` FROM pumps WHERE user_id = $1 ORDER BY date_received DESC, created_at DESC`,
		userID)
}

func (r *pgRepository) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Pump, error) {
	return r.query(ctx,
		`SELECT `+pumpColumns+` FROM pumps WHERE user_id = $1 AND client_id = $2 ORDER BY date_received DESC, created_at DESC`,
		userID, clientID)
}

func (r *pgRepository) query(ctx context.Context, sql string, args ...any) ([]Pump, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list pumps: %w", err)
	}
	defer rows.Close()

	var list []Pump
	for rows.Next() {
		var p Pump
		err := rows.Scan(&p.ID, &p.UserID, &p.ClientID, &p.InvoiceID, &p.PumpModel, &p.SerialNumber,
			&p.Brand, &p.Status, &p.DateReceived, &p.DateDelivered, &p.IssueDescription,
			&p.DiagnosisNotes, &p.RepairNotes, &p.PartsUsed, &p.EstimatedCost, &p.ActualCost,
			&p.LaborCost, &p.TotalCost, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan pump: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, p *Pump) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pumps SET client_id = $3, invoice_id = $4, pump_model = $5, serial_number = $6,
			brand = $7, status = $8, date_received = $9, date_delivered = $10,
			issue_description = $11, diagnosis_notes = $12, repair_notes = $13,
			parts_used = $14, estimated_cost = $15, actual_cost = $16, labor_cost = $17,
			total_cost = $18, updated_at = $19
		WHERE user_id = $1 AND id = $2`,
		p.UserID, p.ID, p.ClientID, p.InvoiceID, p.PumpModel, p.SerialNumber,
		p.Brand, p.Status, p.DateReceived, p.DateDelivered,
		p.IssueDescription, p.DiagnosisNotes, p.RepairNotes,
		p.PartsUsed, p.EstimatedCost, p.ActualCost, p.LaborCost, p.TotalCost, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update pump: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pumps WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete pump: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pumps WHERE user_id = $1 AND client_id = $2)`,
		userID, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pumps for client: %w", err)
	}
	return exists, nil
}
