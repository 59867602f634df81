package settings

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var upper = cases.Upper(language.English)

// UpdateRequest is the payload accepted by PUT /settings. Start numbers and
// current counters are intentionally separate: callers may change where a
// sequence starts, but the live counter only moves through the allocator or
// an explicit reset.
type UpdateRequest struct {
	BusinessName         string  `json:"businessName"`
	BusinessAddress      string  `json:"businessAddress"`
	BusinessPhone        string  `json:"businessPhone"`
	BusinessEmail        string  `json:"businessEmail"`
	InvoicePrefix        string  `json:"invoicePrefix"`
	InvoiceStartNumber   int64   `json:"invoiceStartNumber"`
	QuotationPrefix      string  `json:"quotationPrefix"`
	QuotationStartNumber int64   `json:"quotationStartNumber"`
	DefaultTaxRate       float64 `json:"defaultTaxRate"`
	DefaultPaymentTerms  int     `json:"defaultPaymentTerms"`
}

// Normalize trims free-text fields and uppercases document prefixes.
func (r *UpdateRequest) Normalize() {
	r.BusinessName = strings.TrimSpace(r.BusinessName)
	r.BusinessAddress = strings.TrimSpace(r.BusinessAddress)
	r.BusinessPhone = strings.TrimSpace(r.BusinessPhone)
	r.BusinessEmail = strings.TrimSpace(strings.ToLower(r.BusinessEmail))
	r.InvoicePrefix = upper.String(strings.TrimSpace(r.InvoicePrefix))
	r.QuotationPrefix = upper.String(strings.TrimSpace(r.QuotationPrefix))
}

// Validate reports all field problems at once.
func (r *UpdateRequest) Validate() error {
	errs := map[string]string{}

	checkPrefix := func(field, value string) {
		if len(value) < 2 || len(value) > 10 {
			errs[field] = "Prefix must be between 2 and 10 characters"
		}
	}
	checkStart := func(field string, value int64) {
		if value < 1 || value > 999999 {
			errs[field] = "Start number must be between 1 and 999999"
		}
	}

	checkPrefix("invoicePrefix", r.InvoicePrefix)
	checkPrefix("quotationPrefix", r.QuotationPrefix)
	checkStart("invoiceStartNumber", r.InvoiceStartNumber)
	checkStart("quotationStartNumber", r.QuotationStartNumber)

	if r.DefaultTaxRate < 0 || r.DefaultTaxRate > 100 {
		errs["defaultTaxRate"] = "Tax rate must be between 0 and 100"
	}
	if r.DefaultPaymentTerms < 1 || r.DefaultPaymentTerms > 365 {
		errs["defaultPaymentTerms"] = "Payment terms must be between 1 and 365 days"
	}
	if r.BusinessEmail != "" && !emailPattern.MatchString(r.BusinessEmail) {
		errs["businessEmail"] = "Please enter a valid email address"
	}

	if len(errs) > 0 {
		return shared.NewValidationError(errs)
	}
	return nil
}
