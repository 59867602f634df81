package quotations

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

// InvoiceChecker reports whether an invoice was created from a quotation.
// Deleting a converted quotation is blocked.
type InvoiceChecker interface {
	ExistsForQuotation(ctx context.Context, userID, quotationID uuid.UUID) (bool, error)
}

// Service owns quotation lifecycle rules.
type Service struct {
	repo      Repository
	clients   ClientFinder
	allocator NumberAllocator
	invoices  InvoiceChecker
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, clientFinder ClientFinder, allocator NumberAllocator,
	invoices InvoiceChecker, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		clients:   clientFinder,
		allocator: allocator,
		invoices:  invoices,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the form, allocates the next quotation number and inserts
// the document as a draft.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, form Form) (*Quotation, error) {
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

	number, err := s.allocator.Allocate(ctx, userID, numbering.KindQuotation)
	if err != nil {
		return nil, fmt.Errorf("allocate quotation number: %w", err)
	}

	subtotal, taxAmount, total := salesshared.ComputeTotals(parsed.Items, parsed.TaxRate)
	now := s.now()
	q := &Quotation{
		ID:              uuid.New(),
		UserID:          userID,
		ClientID:        parsed.ClientID,
		QuotationNumber: number,
		Date:            parsed.Date,
		ValidUntil:      parsed.ValidUntil,
		Items:           parsed.Items,
		Subtotal:        subtotal,
		TaxRate:         parsed.TaxRate,
		TaxAmount:       taxAmount,
		Total:           total,
		Status:          StatusDraft,
		Notes:           parsed.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("quotation created", "user_id", userID, "quotation_id", q.ID, "number", number)
	return q, nil
}

// Get returns one quotation owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Quotation, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's quotations newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Quotation, error) {
	return s.repo.List(ctx, userID)
}

// ListByClient returns the quotations issued to one client.
func (s *Service) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Quotation, error) {
	return s.repo.ListByClient(ctx, userID, clientID)
}

// Update replaces the editable fields and recomputes totals. The quotation
// number and creation time never change after issue.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, form Form) (*Quotation, error) {
	errs := salesshared.ErrorMap{}
	parsed, ok := form.Validate(errs)
	if !ok {
		return nil, shared.NewValidationError(errs)
	}

	q, err := s.repo.GetByID(ctx, userID, id)
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
	q.ClientID = parsed.ClientID
	q.Date = parsed.Date
	q.ValidUntil = parsed.ValidUntil
	q.Items = parsed.Items
	q.Subtotal = subtotal
	q.TaxRate = parsed.TaxRate
	q.TaxAmount = taxAmount
	q.Total = total
	q.Notes = parsed.Notes
	q.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// SetStatus moves the quotation to another lifecycle state.
func (s *Service) SetStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Quotation, error) {
	if !status.Valid() {
		return nil, shared.NewValidationError(map[string]string{"status": "Invalid status"})
	}
	q, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	q.Status = status
	q.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a quotation unless it has already been converted.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return err
	}
	converted, err := s.invoices.ExistsForQuotation(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("check conversion: %w", err)
	}
	if converted {
		return shared.Conflict("Cannot delete quotation that has been converted to an invoice")
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("quotation deleted", "user_id", userID, "quotation_id", id)
	return nil
}
