package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OmphileMokhuane/busman/internal/numbering"
)

// Service exposes settings reads, profile updates and counter resets.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the user's settings, creating the defaults on first access.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Update validates and persists profile and numbering configuration. The live
// counters are left untouched.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*Settings, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	current.BusinessName = req.BusinessName
	current.BusinessAddress = req.BusinessAddress
	current.BusinessPhone = req.BusinessPhone
	current.BusinessEmail = req.BusinessEmail
	current.InvoicePrefix = req.InvoicePrefix
	current.InvoiceStartNumber = req.InvoiceStartNumber
	current.QuotationPrefix = req.QuotationPrefix
	current.QuotationStartNumber = req.QuotationStartNumber
	current.DefaultTaxRate = req.DefaultTaxRate
	current.DefaultPaymentTerms = req.DefaultPaymentTerms

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	s.logger.Info("settings updated", "user_id", userID)
	return s.repo.GetOrCreate(ctx, userID)
}

// ResetNumbering rewinds one counter to its configured start number. New
// documents will again collide-and-skip past any numbers already issued.
func (s *Service) ResetNumbering(ctx context.Context, userID uuid.UUID, kind numbering.Kind) (*Settings, error) {
	if _, err := s.repo.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.ResetCounter(ctx, userID, kind); err != nil {
		return nil, fmt.Errorf("reset numbering: %w", err)
	}
	s.logger.Info("numbering reset", "user_id", userID, "kind", kind)
	return s.repo.GetOrCreate(ctx, userID)
}
