// Package settings manages the per-user numbering and business profile
// document. Exactly one settings row exists per user; it is created lazily
// with defaults on first access. The numbering counters on the row are
// advanced only by the sequence allocator and by ResetNumbering.
package settings

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a user touches settings for the first time.
const (
	DefaultInvoicePrefix   = "INV"
	DefaultQuotationPrefix = "QUO"
	DefaultStartNumber     = 1
	DefaultTaxRate         = 15
	DefaultPaymentTerms    = 30
)

// Settings holds numbering configuration and business contact details.
type Settings struct {
	UserID                 uuid.UUID `json:"userId"`
	BusinessName           string    `json:"businessName"`
	BusinessAddress        string    `json:"businessAddress"`
	BusinessPhone          string    `json:"businessPhone"`
	BusinessEmail          string    `json:"businessEmail"`
	InvoicePrefix          string    `json:"invoicePrefix"`
	InvoiceStartNumber     int64     `json:"invoiceStartNumber"`
	InvoiceCurrentNumber   int64     `json:"invoiceCurrentNumber"`
	QuotationPrefix        string    `json:"quotationPrefix"`
	QuotationStartNumber   int64     `json:"quotationStartNumber"`
	QuotationCurrentNumber int64     `json:"quotationCurrentNumber"`
	DefaultTaxRate         float64   `json:"defaultTaxRate"`
	DefaultPaymentTerms    int       `json:"defaultPaymentTerms"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// NewDefaults returns the lazily-created settings for a user.
func NewDefaults(userID uuid.UUID, now time.Time) Settings {
	return Settings{
		UserID:                 userID,
		InvoicePrefix:          DefaultInvoicePrefix,
		InvoiceStartNumber:     DefaultStartNumber,
		InvoiceCurrentNumber:   DefaultStartNumber,
		QuotationPrefix:        DefaultQuotationPrefix,
		QuotationStartNumber:   DefaultStartNumber,
		QuotationCurrentNumber: DefaultStartNumber,
		DefaultTaxRate:         DefaultTaxRate,
		DefaultPaymentTerms:    DefaultPaymentTerms,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}
