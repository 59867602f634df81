package invoices

import (
	"strings"
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

// Form is the create and update payload for an invoice.
type Form struct {
	ClientID            string                 `json:"clientId"`
	Date                string                 `json:"date"`
	DueDate             string                 `json:"dueDate"`
	Items               []salesshared.LineItem `json:"items"`
	TaxRate             float64                `json:"taxRate"`
	PurchaseOrderNumber string                 `json:"purchaseOrderNumber"`
	Notes               string                 `json:"notes"`
}

type parsedForm struct {
	ClientID            uuid.UUID
	Date                time.Time
	DueDate             time.Time
	Items               []salesshared.LineItem
	TaxRate             float64
	PurchaseOrderNumber string
	Notes               string
}

// Validate collects all field errors and returns the typed values when the
// form is clean. The due date may equal the invoice date.
func (f *Form) Validate(errs salesshared.ErrorMap) (parsedForm, bool) {
	var parsed parsedForm

	clientID, err := uuid.Parse(strings.TrimSpace(f.ClientID))
	if err != nil || clientID == uuid.Nil {
		errs.Add("clientId", "Please select a client")
	} else {
		parsed.ClientID = clientID
	}

	date, dateOK := salesshared.ParseDate("date", f.Date, "Invoice date is required", errs)
	dueDate, dueOK := salesshared.ParseDate("dueDate", f.DueDate, "Due date is required", errs)
	if dateOK && dueOK {
		salesshared.CheckDateOrder("dueDate", date, dueDate,
			"Due date must be on or after invoice date", errs)
	}
	parsed.Date = date
	parsed.DueDate = dueDate

	salesshared.CheckItems(f.Items, errs)
	salesshared.CheckTaxRate(f.TaxRate, errs)

	parsed.Items = salesshared.NormalizeItems(f.Items)
	parsed.TaxRate = f.TaxRate
	parsed.PurchaseOrderNumber = strings.TrimSpace(f.PurchaseOrderNumber)
	parsed.Notes = strings.TrimSpace(f.Notes)

	return parsed, !errs.Any()
}

// PaymentForm is the payload for recording one payment against an invoice.
type PaymentForm struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	PaymentDate   string  `json:"paymentDate"`
	Notes         string  `json:"notes"`
}

// Validate checks the payment form fields. The overpayment rule needs the
// invoice balance and is enforced by the service.
func (f *PaymentForm) Validate(errs salesshared.ErrorMap) (time.Time, bool) {
	if f.Amount <= 0 {
		errs.Add("amount", "Please enter a valid payment amount")
	}
	if strings.TrimSpace(f.PaymentMethod) == "" {
		errs.Add("paymentMethod", "Please select a payment method")
	}
	paymentDate, _ := salesshared.ParseDate("paymentDate", f.PaymentDate, "Payment date is required", errs)
	return paymentDate, !errs.Any()
}
