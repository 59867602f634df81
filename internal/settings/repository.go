package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// Repository persists the single settings row per user.
type Repository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
	ResetCounter(ctx context.Context, userID uuid.UUID, kind numbering.Kind) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed settings repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const settingsColumns = `user_id, business_name, business_address, business_phone, business_email,
	invoice_prefix, invoice_start_number, invoice_current_number,
	quotation_prefix, quotation_start_number, quotation_current_number,
	default_tax_rate, default_payment_terms, created_at, updated_at`

func (r *pgRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	// Insert-if-absent first so the subsequent read always finds a row.
	// The no-op conflict arm keeps concurrent first touches idempotent.
	d := NewDefaults(userID, time.Now().UTC())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (user_id, invoice_prefix, invoice_start_number, invoice_current_number,
			quotation_prefix, quotation_start_number, quotation_current_number,
			default_tax_rate, default_payment_terms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id) DO NOTHING`,
		d.UserID, d.InvoicePrefix, d.InvoiceStartNumber, d.InvoiceCurrentNumber,
		d.QuotationPrefix, d.QuotationStartNumber, d.QuotationCurrentNumber,
		d.DefaultTaxRate, d.DefaultPaymentTerms, d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create default settings: %w", err)
	}

	row := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE user_id = $1`, userID)
	var s Settings
	err = row.Scan(&s.UserID, &s.BusinessName, &s.BusinessAddress, &s.BusinessPhone, &s.BusinessEmail,
		&s.InvoicePrefix, &s.InvoiceStartNumber, &s.InvoiceCurrentNumber,
		&s.QuotationPrefix, &s.QuotationStartNumber, &s.QuotationCurrentNumber,
		&s.DefaultTaxRate, &s.DefaultPaymentTerms, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &s, nil
}

func (r *pgRepository) Update(ctx context.Context, s *Settings) error {
	// Current counters are deliberately absent from the SET list. They are
	// owned by the sequence allocator and ResetCounter.
	tag, err := r.pool.Exec(ctx, `
		UPDATE settings SET
			business_name = $2, business_address = $3, business_phone = $4, business_email = $5,
			invoice_prefix = $6, invoice_start_number = $7,
			quotation_prefix = $8, quotation_start_number = $9,
			default_tax_rate = $10, default_payment_terms = $11,
			updated_at = NOW()
		WHERE user_id = $1`,
		s.UserID, s.BusinessName, s.BusinessAddress, s.BusinessPhone, s.BusinessEmail,
		s.InvoicePrefix, s.InvoiceStartNumber,
		s.QuotationPrefix, s.QuotationStartNumber,
		s.DefaultTaxRate, s.DefaultPaymentTerms)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) ResetCounter(ctx context.Context, userID uuid.UUID, kind numbering.Kind) error {
	var query string
	switch kind {
	case numbering.KindInvoice:
		query = `UPDATE settings SET invoice_current_number = invoice_start_number, updated_at = NOW() WHERE user_id = $1`
	case numbering.KindQuotation:
		query = `UPDATE settings SET quotation_current_number = quotation_start_number, updated_at = NOW() WHERE user_id = $1`
	default:
		return fmt.Errorf("reset counter: unknown kind %q", kind)
	}
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("reset %s counter: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
