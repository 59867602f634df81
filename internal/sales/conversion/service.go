package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/internal/sales/quotations"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// NumberAllocator issues the next unique invoice number. The counter advance
// commits on its own: an aborted conversion may leave a gap in the sequence
// but never a duplicate.
type NumberAllocator interface {
	Allocate(ctx context.Context, userID uuid.UUID, kind numbering.Kind) (string, error)
}

// Request is the payload for converting a quotation. The invoice dates are
// chosen at conversion time; notes are appended to the quotation's notes.
type Request struct {
	Date                string `json:"date"`
	DueDate             string `json:"dueDate"`
	PurchaseOrderNumber string `json:"purchaseOrderNumber"`
	Notes               string `json:"notes"`
}

func (r *Request) validate(errs salesshared.ErrorMap) (date, dueDate time.Time) {
	date, dateOK := salesshared.ParseDate("date", r.Date, "Invoice date is required", errs)
	dueDate, dueOK := salesshared.ParseDate("dueDate", r.DueDate, "Due date is required", errs)
	if dateOK && dueOK {
		salesshared.CheckDateOrder("dueDate", date, dueDate,
			"Due date must be on or after invoice date", errs)
	}
	return date, dueDate
}

// Service converts quotations into invoices.
type Service struct {
	repo      Repository
	allocator NumberAllocator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, allocator NumberAllocator, logger *slog.Logger) *Service {
	return &Service{repo: repo, allocator: allocator, logger: logger, now: time.Now}
}

// Convert copies the quotation's client, items and totals into a new invoice,
// links the invoice back to the quotation and marks the quotation accepted.
// Everything except the number allocation happens in one transaction.
func (s *Service) Convert(ctx context.Context, userID, quotationID uuid.UUID, req Request) (*invoices.Invoice, error) {
	errs := salesshared.ErrorMap{}
	date, dueDate := req.validate(errs)
	if errs.Any() {
		return nil, shared.NewValidationError(errs)
	}

	number, err := s.allocator.Allocate(ctx, userID, numbering.KindInvoice)
	if err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}

	var created *invoices.Invoice
	err = s.repo.ConvertTx(ctx, func(tx TxRepository) error {
		q, err := tx.GetQuotationForUpdate(ctx, userID, quotationID)
		if err != nil {
			return err
		}

		converted, err := tx.InvoiceExistsForQuotation(ctx, userID, quotationID)
		if err != nil {
			return err
		}
		if converted {
			return ErrAlreadyConverted
		}

		now := s.now()
		qID := q.ID
		inv := &invoices.Invoice{
			ID:                  uuid.New(),
			UserID:              userID,
			ClientID:            q.ClientID,
			QuotationID:         &qID,
			InvoiceNumber:       number,
			Date:                date,
			DueDate:             dueDate,
			Items:               q.Items,
			Subtotal:            q.Subtotal,
			TaxRate:             q.TaxRate,
			TaxAmount:           q.TaxAmount,
			Total:               q.Total,
			AmountPaid:          0,
			Balance:             q.Total,
			PaymentHistory:      []invoices.PaymentEntry{},
			PurchaseOrderNumber: strings.TrimSpace(req.PurchaseOrderNumber),
			Status:              invoices.StatusDraft,
			Notes:               joinNotes(q.Notes, req.Notes),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		if err := tx.SetQuotationStatus(ctx, userID, quotationID, quotations.StatusAccepted, now); err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation converted", "user_id", userID,
		"quotation_id", quotationID, "invoice_id", created.ID, "number", number)
	return created, nil
}

func joinNotes(quotationNotes, extra string) string {
	quotationNotes = strings.TrimSpace(quotationNotes)
	extra = strings.TrimSpace(extra)
	switch {
	case quotationNotes == "":
		return extra
	case extra == "":
		return quotationNotes
	default:
		return quotationNotes + "\n\n" + extra
	}
}
