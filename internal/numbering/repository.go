package numbering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements CounterStore and DocumentIndex on PostgreSQL. The
// counters live on the per-user settings row; the existence checks hit the
// document tables directly.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// The upsert lazily creates default settings and reserves the next sequence
// in one statement, so two concurrent callers can never read the same value.
// A fresh row stores current = start + 1 and the reserved value is start.
const nextInvoiceSeqSQL = `
INSERT INTO settings (user_id, invoice_prefix, invoice_start_number, invoice_current_number,
                      quotation_prefix, quotation_start_number, quotation_current_number,
                      default_tax_rate, default_payment_terms, created_at, updated_at)
VALUES ($1, 'INV', 1, 2, 'QUO', 1, 1, 15, 30, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET invoice_current_number = settings.invoice_current_number + 1, updated_at = NOW()
RETURNING invoice_prefix, invoice_current_number - 1
`

const nextQuotationSeqSQL = `
INSERT INTO settings (user_id, invoice_prefix, invoice_start_number, invoice_current_number,
                      quotation_prefix, quotation_start_number, quotation_current_number,
                      default_tax_rate, default_payment_terms, created_at, updated_at)
VALUES ($1, 'INV', 1, 1, 'QUO', 1, 2, 15, 30, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE
SET quotation_current_number = settings.quotation_current_number + 1, updated_at = NOW()
RETURNING quotation_prefix, quotation_current_number - 1
`

// NextSequence reserves the next counter value for the user and kind.
func (r *Repository) NextSequence(ctx context.Context, userID uuid.UUID, kind Kind) (string, int64, error) {
	var query string
	switch kind {
	case KindInvoice:
		query = nextInvoiceSeqSQL
	case KindQuotation:
		query = nextQuotationSeqSQL
	default:
		return "", 0, fmt.Errorf("numbering: unknown kind %q", kind)
	}

	var prefix string
	var seq int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&prefix, &seq); err != nil {
		return "", 0, err
	}
	return prefix, seq, nil
}

// NumberExists checks the document table for an existing number.
func (r *Repository) NumberExists(ctx context.Context, userID uuid.UUID, kind Kind, number string) (bool, error) {
	var query string
	switch kind {
	case KindInvoice:
		query = `SELECT EXISTS (SELECT 1 FROM invoices WHERE user_id = $1 AND invoice_number = $2)`
	case KindQuotation:
		query = `SELECT EXISTS (SELECT 1 FROM quotations WHERE user_id = $1 AND quotation_number = $2)`
	default:
		return false, fmt.Errorf("numbering: unknown kind %q", kind)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
