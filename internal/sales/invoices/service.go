package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// ClientFinder resolves a client owned by the user. The clients service
// satisfies it.
type ClientFinder interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*clients.Client, error)
}

// NumberAllocator issues the next unique document number for a user.
type NumberAllocator interface {
	Allocate(ctx context.Context, userID uuid.UUID, kind numbering.Kind) (string, error)
}

// Service owns invoice lifecycle rules and the payment ledger.
type Service struct {
	repo      Repository
	clients   ClientFinder
	allocator NumberAllocator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, clientFinder ClientFinder, allocator NumberAllocator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		clients:   clientFinder,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the form, allocates the next invoice number and inserts
// the document as an unpaid draft.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, form Form) (*Invoice, error) {
	errs := salesshared.ErrorMap{}
	parsed, ok := form.Validate(errs)
	if !ok {
		return nil, shared.NewValidationError(errs)
	}

	if _, err := s.clients.Get(ctx, userID, parsed.ClientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(map[string]string{"clientId": "Please select a client"})
		}
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	number, err := s.allocator.Allocate(ctx, userID, numbering.KindInvoice)
	if err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}

	subtotal, taxAmount, total := salesshared.ComputeTotals(parsed.Items, parsed.TaxRate)
	now := s.now()
	inv := &Invoice{
		ID:                  uuid.New(),
		UserID:              userID,
		ClientID:            parsed.ClientID,
		InvoiceNumber:       number,
		Date:                parsed.Date,
		DueDate:             parsed.DueDate,
		Items:               parsed.Items,
		Subtotal:            subtotal,
		TaxRate:             parsed.TaxRate,
		TaxAmount:           taxAmount,
		Total:               total,
		AmountPaid:          0,
		Balance:             total,
		PaymentHistory:      []PaymentEntry{},
		PurchaseOrderNumber: parsed.PurchaseOrderNumber,
		Status:              StatusDraft,
		Notes:               parsed.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("invoice created", "user_id", userID, "invoice_id", inv.ID, "number", number)
	return inv, nil
}

// Get returns one invoice owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's invoices newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Invoice, error) {
	return s.repo.List(ctx, userID)
}

// ListByClient returns the invoices issued to one client.
func (s *Service) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Invoice, error) {
	return s.repo.ListByClient(ctx, userID, clientID)
}

// Update replaces the editable fields and recomputes totals. The payment
// ledger is untouched; the balance and derived status follow the new total.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, form Form) (*Invoice, error) {
	errs := salesshared.ErrorMap{}
	parsed, ok := form.Validate(errs)
	if !ok {
		return nil, shared.NewValidationError(errs)
	}

	inv, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.clients.Get(ctx, userID, parsed.ClientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(map[string]string{"clientId": "Please select a client"})
		}
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	subtotal, taxAmount, total := salesshared.ComputeTotals(parsed.Items, parsed.TaxRate)
	if salesshared.Round2(inv.AmountPaid) > total {
		return nil, shared.NewValidationError(map[string]string{
			"items": "Total cannot drop below the amount already paid",
		})
	}

	inv.ClientID = parsed.ClientID
	inv.Date = parsed.Date
	inv.DueDate = parsed.DueDate
	inv.Items = parsed.Items
	inv.Subtotal = subtotal
	inv.TaxRate = parsed.TaxRate
	inv.TaxAmount = taxAmount
	inv.Total = total
	inv.Balance = salesshared.Round2(total - inv.AmountPaid)
	inv.PurchaseOrderNumber = parsed.PurchaseOrderNumber
	inv.Notes = parsed.Notes
	inv.UpdatedAt = s.now()
	if inv.AmountPaid > 0 {
		if inv.Balance == 0 {
			inv.Status = StatusPaid
		} else {
			inv.Status = StatusPartial
		}
	}

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SetStatus moves the invoice to another lifecycle state. The payment-derived
// states cannot be entered by hand.
func (s *Service) SetStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Invoice, error) {
	if !status.Valid() || status == StatusPaid || status == StatusPartial {
		return nil, shared.NewValidationError(map[string]string{"status": "Invalid status"})
	}
	inv, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	inv.Status = status
	inv.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RecordPayment appends one ledger entry and recomputes the paid amount,
// balance and status. A payment that would push the paid amount past the
// total is rejected and leaves the invoice untouched.
func (s *Service) RecordPayment(ctx context.Context, userID, id uuid.UUID, form PaymentForm) (*Invoice, error) {
	errs := salesshared.ErrorMap{}
	paymentDate, ok := form.Validate(errs)
	if !ok {
		return nil, shared.NewValidationError(errs)
	}

	inv, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, shared.Conflict("Cannot record a payment on a cancelled invoice")
	}

	amount := salesshared.Round2(form.Amount)
	newPaid := salesshared.Round2(inv.AmountPaid + amount)
	if newPaid > inv.Total {
		return nil, shared.NewValidationError(map[string]string{
			"amount": "Payment amount exceeds invoice total",
		})
	}

	now := s.now()
	entry := PaymentEntry{
		Amount:        amount,
		PaymentMethod: form.PaymentMethod,
		PaymentDate:   paymentDate,
		RecordedAt:    now,
		Notes:         form.Notes,
	}

	inv.AmountPaid = newPaid
	inv.Balance = salesshared.Round2(inv.Total - newPaid)
	if inv.Balance == 0 {
		inv.Status = StatusPaid
	} else {
		inv.Status = StatusPartial
	}
	inv.PaymentMethod = &entry.PaymentMethod
	inv.PaymentDate = &entry.PaymentDate
	inv.PaymentHistory = append(inv.PaymentHistory, entry)
	inv.UpdatedAt = now

	if err := s.repo.AppendPayment(ctx, inv, entry); err != nil {
		return nil, err
	}
	s.logger.Info("payment recorded", "user_id", userID, "invoice_id", id,
		"amount", amount, "balance", inv.Balance, "status", inv.Status)
	return inv, nil
}

// Delete removes an invoice. Unlike quotations there is no conversion guard;
// deleting a converted invoice simply frees its quotation for reconversion.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("invoice deleted", "user_id", userID, "invoice_id", id)
	return nil
}

// MarkOverdue flips every sent or partially paid invoice whose due date has
// passed. It runs from the background worker. Comparison happens at day
// granularity: an invoice due today stays current regardless of the hour the
// sweep runs.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", "count", n, "as_of", asOf.Format("2006-01-02"))
	}
	return n, nil
}

// ExistsForQuotation reports whether an invoice was created from the given
// quotation. It backs the quotation delete guard.
func (s *Service) ExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error) {
	return s.repo.ExistsForQuotation(ctx, userID, quotationID)
}
