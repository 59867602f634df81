// Package invoices manages invoice documents, their payment ledger and the
// overdue sweep. An invoice either stands alone or records the quotation it
// was converted from.
package invoices

import (
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

// Status is the invoice lifecycle state. The paid and partial states are
// derived from the payment ledger, never set directly by callers.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusPartial   Status = "partial"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusPartial, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// PaymentEntry is one ledger line in the invoice's payment history.
type PaymentEntry struct {
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentDate   time.Time `json:"paymentDate"`
	RecordedAt    time.Time `json:"recordedAt"`
	Notes         string    `json:"notes,omitempty"`
}

// Invoice is a numbered bill. AmountPaid and Balance always satisfy
// balance = total - amountPaid after rounding to cents.
type Invoice struct {
	ID                  uuid.UUID              `json:"id"`
	UserID              uuid.UUID              `json:"userId"`
	ClientID            uuid.UUID              `json:"clientId"`
	QuotationID         *uuid.UUID             `json:"quotationId,omitempty"`
	InvoiceNumber       string                 `json:"invoiceNumber"`
	Date                time.Time              `json:"date"`
	DueDate             time.Time              `json:"dueDate"`
	Items               []salesshared.LineItem `json:"items"`
	Subtotal            float64                `json:"subtotal"`
	TaxRate             float64                `json:"taxRate"`
	TaxAmount           float64                `json:"taxAmount"`
	Total               float64                `json:"total"`
	AmountPaid          float64                `json:"amountPaid"`
	Balance             float64                `json:"balance"`
	PaymentMethod       *string                `json:"paymentMethod,omitempty"`
	PaymentDate         *time.Time             `json:"paymentDate,omitempty"`
	PaymentHistory      []PaymentEntry         `json:"paymentHistory"`
	PurchaseOrderNumber string                 `json:"purchaseOrderNumber"`
	Status              Status                 `json:"status"`
	Notes               string                 `json:"notes"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}
