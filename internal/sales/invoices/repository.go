package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

// Repository persists invoices scoped to their owning user. Line items and
// the payment ledger are stored as jsonb documents on the row.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, userID uuid.UUID) ([]Invoice, error)
	ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	AppendPayment(ctx context.Context, inv *Invoice, entry PaymentEntry) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
	ExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed invoice repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const invoiceColumns = `id, user_id, client_id, quotation_id, invoice_number, date, due_date,
	items, subtotal, tax_rate, tax_amount, total, amount_paid, balance,
	payment_method, payment_date, payment_history, purchase_order_number,
	status, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.UserID, &inv.ClientID, &inv.QuotationID, &inv.InvoiceNumber,
		&inv.Date, &inv.DueDate, &inv.Items, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount,
		&inv.Total, &inv.AmountPaid, &inv.Balance, &inv.PaymentMethod, &inv.PaymentDate,
		&inv.PaymentHistory, &inv.PurchaseOrderNumber, &inv.Status, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *pgRepository) Create(ctx context.Context, inv *Invoice) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invoices (id, user_id, client_id, quotation_id, invoice_number, date, due_date,
			items, subtotal, tax_rate, tax_amount, total, amount_paid, balance,
			payment_method, payment_date, payment_history, purchase_order_number,
			status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`,
		inv.ID, inv.UserID, inv.ClientID, inv.QuotationID, inv.InvoiceNumber, inv.Date, inv.DueDate,
		inv.Items, inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.AmountPaid, inv.Balance,
		inv.PaymentMethod, inv.PaymentDate, inv.PaymentHistory, inv.PurchaseOrderNumber,
		inv.Status, inv.Notes, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = $1 AND id = $2`, userID, id)
	return scanInvoice(row)
}

func (r *pgRepository) List(ctx context.Context, userID uuid.UUID) ([]Invoice, error) {
	return r.query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (r *pgRepository) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Invoice, error) {
	return r.query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = $1 AND client_id = $2 ORDER BY created_at DESC`,
		userID, clientID)
}

func (r *pgRepository) query(ctx context.Context, sql string, args ...any) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []Invoice
	for rows.Next() {
		var inv Invoice
		err := rows.Scan(&inv.ID, &inv.UserID, &inv.ClientID, &inv.QuotationID, &inv.InvoiceNumber,
			&inv.Date, &inv.DueDate, &inv.Items, &inv.Subtotal, &inv.TaxRate, &inv.TaxAmount,
			&inv.Total, &inv.AmountPaid, &inv.Balance, &inv.PaymentMethod, &inv.PaymentDate,
			&inv.PaymentHistory, &inv.PurchaseOrderNumber, &inv.Status, &inv.Notes,
			&inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET client_id = $3, date = $4, due_date = $5, items = $6,
			subtotal = $7, tax_rate = $8, tax_amount = $9, total = $10,
			amount_paid = $11, balance = $12, purchase_order_number = $13,
			status = $14, notes = $15, updated_at = $16
		WHERE user_id = $1 AND id = $2`,
		inv.UserID, inv.ID, inv.ClientID, inv.Date, inv.DueDate, inv.Items,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total,
		inv.AmountPaid, inv.Balance, inv.PurchaseOrderNumber,
		inv.Status, inv.Notes, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AppendPayment writes the ledger entry and the derived payment fields in one
// statement so a crash can never leave the ledger and totals disagreeing.
func (r *pgRepository) AppendPayment(ctx context.Context, inv *Invoice, entry PaymentEntry) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			amount_paid = $3, balance = $4, status = $5,
			payment_method = $6, payment_date = $7,
			payment_history = payment_history || $8::jsonb,
			updated_at = $9
		WHERE user_id = $1 AND id = $2`,
		inv.UserID, inv.ID, inv.AmountPaid, inv.Balance, inv.Status,
		inv.PaymentMethod, inv.PaymentDate, []PaymentEntry{entry}, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkOverdue flips every sent or partially paid invoice past its due date to
// overdue, across all users. Returns the number of rows flipped.
func (r *pgRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = 'overdue', updated_at = NOW()
		WHERE status IN ('sent', 'partial') AND due_date < $1::date`, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgRepository) ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE user_id = $1 AND client_id = $2)`,
		userID, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoices for client: %w", err)
	}
	return exists, nil
}

func (r *pgRepository) ExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE user_id = $1 AND quotation_id = $2)`,
		userID, quotationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice for quotation: %w", err)
	}
	return exists, nil
}
