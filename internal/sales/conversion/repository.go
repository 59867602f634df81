// Package conversion turns an accepted quotation into an invoice inside a
// single transaction. A quotation converts at most once; the partial unique
// index on invoices(user_id, quotation_id) backstops the in-transaction check.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/platform/db"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/internal/sales/quotations"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// ErrAlreadyConverted reports a second conversion attempt for the same
// quotation.
var ErrAlreadyConverted = shared.Conflict("Cannot convert quotation that has already been converted to an invoice")

// TxRepository is the slice of storage the conversion runs against, bound to
// one open transaction.
type TxRepository interface {
	GetQuotationForUpdate(ctx context.Context, userID, quotationID uuid.UUID) (*quotations.Quotation, error)
	InvoiceExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error)
	InsertInvoice(ctx context.Context, inv *invoices.Invoice) error
	SetQuotationStatus(ctx context.Context, userID, quotationID uuid.UUID, status quotations.Status, updatedAt time.Time) error
}

// Repository opens the conversion transaction.
type Repository interface {
	ConvertTx(ctx context.Context, fn func(tx TxRepository) error) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed conversion repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) ConvertTx(ctx context.Context, fn func(tx TxRepository) error) error {
	// ReadCommitted: a converter that loses the FOR UPDATE race re-reads the
	// winner's committed invoice and takes the already-converted path instead
	// of aborting with a serialization failure.
	err := db.WithTxOpts(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
	return mapConversionError(err)
}

// mapConversionError folds Postgres conflict codes from a conversion
// transaction into ErrAlreadyConverted: 23505 from the partial unique index
// on invoices(user_id, quotation_id), and 40001 in case a racer still aborts
// on the quotation row.
func mapConversionError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "40001") {
		return ErrAlreadyConverted
	}
	return err
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetQuotationForUpdate(ctx context.Context, userID, quotationID uuid.UUID) (*quotations.Quotation, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, user_id, client_id, quotation_number, date, valid_until,
			items, subtotal, tax_rate, tax_amount, total, status, notes, created_at, updated_at
		FROM quotations WHERE user_id = $1 AND id = $2
		FOR UPDATE`, userID, quotationID)

	var q quotations.Quotation
	err := row.Scan(&q.ID, &q.UserID, &q.ClientID, &q.QuotationNumber, &q.Date, &q.ValidUntil,
		&q.Items, &q.Subtotal, &q.TaxRate, &q.TaxAmount, &q.Total, &q.Status, &q.Notes,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("lock quotation: %w", err)
	}
	return &q, nil
}

func (t *txRepository) InvoiceExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE user_id = $1 AND quotation_id = $2)`,
		userID, quotationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing invoice: %w", err)
	}
	return exists, nil
}

func (t *txRepository) InsertInvoice(ctx context.Context, inv *invoices.Invoice) error {
	_, err := t.tx.Exec(ctx, `
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
		return fmt.Errorf("insert converted invoice: %w", err)
	}
	return nil
}

func (t *txRepository) SetQuotationStatus(ctx context.Context, userID, quotationID uuid.UUID, status quotations.Status, updatedAt time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE quotations SET status = $3, updated_at = $4 WHERE user_id = $1 AND id = $2`,
		userID, quotationID, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
