package pumps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// ClientFinder resolves a client owned by the user. The clients service
// satisfies it.
type ClientFinder interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*clients.Client, error)
}

// Service owns pump repair job rules.
type Service struct {
	repo    Repository
	clients ClientFinder
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, clientFinder ClientFinder, logger *slog.Logger) *Service {
	return &Service{repo: repo, clients: clientFinder, logger: logger, now: time.Now}
}

// Create validates the form and inserts a new job in the received state.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, form Form) (*Pump, error) {
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

	now := s.now()
	p := &Pump{
		ID:               uuid.New(),
		UserID:           userID,
		ClientID:         parsed.ClientID,
		InvoiceID:        parsed.InvoiceID,
		PumpModel:        form.PumpModel,
		SerialNumber:     form.SerialNumber,
		Brand:            form.Brand,
		Status:           StatusReceived,
		DateReceived:     parsed.DateReceived,
		DateDelivered:    parsed.DateDelivered,
		IssueDescription: form.IssueDescription,
		DiagnosisNotes:   form.DiagnosisNotes,
		RepairNotes:      form.RepairNotes,
		PartsUsed:        parsed.PartsUsed,
		EstimatedCost:    salesshared.Round2(form.EstimatedCost),
		ActualCost:       salesshared.Round2(form.ActualCost),
		LaborCost:        salesshared.Round2(form.LaborCost),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.TotalCost = salesshared.Round2(p.ActualCost + p.LaborCost)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("pump job created", "user_id", userID, "pump_id", p.ID)
	return p, nil
}

// Get returns one pump job owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Pump, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's pump jobs, most recently received first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Pump, error) {
	return s.repo.List(ctx, userID)
}

// ListByClient returns one client's pump jobs.
func (s *Service) ListByClient(ctx context.Context, userID, clientID uuid.UUID) ([]Pump, error) {
	return s.repo.ListByClient(ctx, userID, clientID)
}

// Update replaces the editable fields and rederives the total cost.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, form Form) (*Pump, error) {
	errs := salesshared.ErrorMap{}
	parsed, ok := form.Validate(errs)
	if !ok {
		return nil, shared.NewValidationError(errs)
	}

	p, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.clients.Get(ctx, userID, parsed.ClientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError(map[string]string{"clientId": "Please select a client"})
		}
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	p.ClientID = parsed.ClientID
	p.InvoiceID = parsed.InvoiceID
	p.PumpModel = form.PumpModel
	p.SerialNumber = form.SerialNumber
	p.Brand = form.Brand
	p.DateReceived = parsed.DateReceived
	p.DateDelivered = parsed.DateDelivered
	p.IssueDescription = form.IssueDescription
	p.DiagnosisNotes = form.DiagnosisNotes
	p.RepairNotes = form.RepairNotes
	p.PartsUsed = parsed.PartsUsed
	p.EstimatedCost = salesshared.Round2(form.EstimatedCost)
	p.ActualCost = salesshared.Round2(form.ActualCost)
	p.LaborCost = salesshared.Round2(form.LaborCost)
	p.TotalCost = salesshared.Round2(p.ActualCost + p.LaborCost)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus moves the job to another workshop state. Entering the delivered
// state stamps the delivery date when none is set yet.
func (s *Service) SetStatus(ctx context.Context, userID, id uuid.UUID, status Status) (*Pump, error) {
	if !status.Valid() {
		return nil, shared.NewValidationError(map[string]string{"status": "Invalid status"})
	}
	p, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p.Status = status
	if status == StatusDelivered && p.DateDelivered == nil {
		delivered := now
		p.DateDelivered = &delivered
	}
	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a pump job.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("pump job deleted", "user_id", userID, "pump_id", id)
	return nil
}
