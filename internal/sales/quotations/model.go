// Package quotations manages quotation documents: numbered, client-bound
// offers that can later be converted into invoices.
package quotations

import (
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

// Status is the quotation lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Quotation is a numbered offer document. Totals are derived from the
// embedded items and tax rate at write time and stored alongside them.
type Quotation struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"userId"`
	ClientID        uuid.UUID              `json:"clientId"`
	QuotationNumber string                 `json:"quotationNumber"`
	Date            time.Time              `json:"date"`
	ValidUntil      time.Time              `json:"validUntil"`
	Items           []salesshared.LineItem `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	TaxRate         float64                `json:"taxRate"`
	TaxAmount       float64                `json:"taxAmount"`
	Total           float64                `json:"total"`
	Status          Status                 `json:"status"`
	Notes           string                 `json:"notes"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}
