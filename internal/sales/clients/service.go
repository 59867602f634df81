package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// ReferenceChecker reports whether a document module still holds records for
// a client. Quotations, invoices and pump jobs each provide one; deletion is
// blocked while any reports true.
type ReferenceChecker interface {
	ExistsForClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
}

// Service owns client validation, the duplicate email rule and the delete
// guard.
type Service struct {
	repo   Repository
	refs   []ReferenceChecker
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, refs []ReferenceChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, refs: refs, logger: logger, now: time.Now}
}

// Create validates the form and inserts a new client. A duplicate email for
// the same owner is rejected as a field error.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, form Form) (*Client, error) {
	form.Normalize()
	errs := salesshared.ErrorMap{}
	form.Validate(errs)
	if errs.Any() {
		return nil, shared.NewValidationError(errs)
	}

	taken, err := s.repo.EmailExists(ctx, userID, form.Email, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("check duplicate email: %w", err)
	}
	if taken {
		return nil, shared.NewValidationError(map[string]string{
			"email": "A client with this email already exists",
		})
	}

	now := s.now()
	c := &Client{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           form.Name,
		Email:          form.Email,
		Phone:          form.Phone,
		CompanyName:    form.CompanyName,
		CompanyAddress: form.CompanyAddress,
		Notes:          form.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("client created", "user_id", userID, "client_id", c.ID)
	return c, nil
}

// Get returns a single client owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Client, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns all of the user's clients ordered by name.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Client, error) {
	return s.repo.List(ctx, userID)
}

// Update applies a full replacement of the editable fields. The duplicate
// email check excludes the client being updated.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, form Form) (*Client, error) {
	form.Normalize()
	errs := salesshared.ErrorMap{}
	form.Validate(errs)
	if errs.Any() {
		return nil, shared.NewValidationError(errs)
	}

	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailExists(ctx, userID, form.Email, id)
	if err != nil {
		return nil, fmt.Errorf("check duplicate email: %w", err)
	}
	if taken {
		return nil, shared.NewValidationError(map[string]string{
			"email": "A client with this email already exists",
		})
	}

	c.Name = form.Name
	c.Email = form.Email
	c.Phone = form.Phone
	c.CompanyName = form.CompanyName
	c.CompanyAddress = form.CompanyAddress
	c.Notes = form.Notes
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a client unless any document module still references it.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return err
	}
	for _, ref := range s.refs {
		inUse, err := ref.ExistsForClient(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("check client references: %w", err)
		}
		if inUse {
			return shared.Conflict("Cannot delete client with existing quotations, invoices, or pumps")
		}
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", "user_id", userID, "client_id", id)
	return nil
}
