package quotations

import (
	"strings"
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

// Form is the create and update payload for a quotation. Dates travel as
// yyyy-mm-dd strings and are parsed during validation.
type Form struct {
	ClientID   string                 `json:"clientId"`
	Date       string                 `json:"date"`
	ValidUntil string                 `json:"validUntil"`
	Items      []salesshared.LineItem `json:"items"`
	TaxRate    float64                `json:"taxRate"`
	Notes      string                 `json:"notes"`
}

// parsedForm holds the typed values extracted by Validate.
type parsedForm struct {
	ClientID   uuid.UUID
	Date       time.Time
	ValidUntil time.Time
	Items      []salesshared.LineItem
	TaxRate    float64
	Notes      string
}

// Validate collects all field errors and returns the typed values when the
// form is clean. The valid-until date may equal the quotation date.
func (f *Form) Validate(errs salesshared.ErrorMap) (parsedForm, bool) {
	var parsed parsedForm

	clientID, err := uuid.Parse(strings.TrimSpace(f.ClientID))
	if err != nil || clientID == uuid.Nil {
		errs.Add("clientId", "Please select a client")
	} else {
		parsed.ClientID = clientID
	}

	date, dateOK := salesshared.ParseDate("date", f.Date, "Quotation date is required", errs)
	validUntil, validOK := salesshared.ParseDate("validUntil", f.ValidUntil, "Valid until date is required", errs)
	if dateOK && validOK {
		salesshared.CheckDateOrder("validUntil", date, validUntil,
			"Valid until date must be on or after the quotation date", errs)
	}
	parsed.Date = date
	parsed.ValidUntil = validUntil

	salesshared.CheckItems(f.Items, errs)
	salesshared.CheckTaxRate(f.TaxRate, errs)

	parsed.Items = salesshared.NormalizeItems(f.Items)
	parsed.TaxRate = f.TaxRate
	parsed.Notes = strings.TrimSpace(f.Notes)

	return parsed, !errs.Any()
}
