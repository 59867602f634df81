package pumps

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

// Form is the create and update payload for a pump repair job.
type Form struct {
	ClientID         string  `json:"clientId"`
	InvoiceID        string  `json:"invoiceId"`
	PumpModel        string  `json:"pumpModel" validate:"max=200"`
	SerialNumber     string  `json:"serialNumber" validate:"max=100"`
	Brand            string  `json:"brand" validate:"max=100"`
	DateReceived     string  `json:"dateReceived"`
	DateDelivered    string  `json:"dateDelivered"`
	IssueDescription string  `json:"issueDescription"`
	DiagnosisNotes   string  `json:"diagnosisNotes"`
	RepairNotes      string  `json:"repairNotes"`
	PartsUsed        []Part  `json:"partsUsed"`
	EstimatedCost    float64 `json:"estimatedCost"`
	ActualCost       float64 `json:"actualCost"`
	LaborCost        float64 `json:"laborCost"`
}

type parsedForm struct {
	ClientID      uuid.UUID
	InvoiceID     *uuid.UUID
	DateReceived  time.Time
	DateDelivered *time.Time
	PartsUsed     []Part
}

// Validate collects all field errors and returns the typed values when the
// form is clean.
func (f *Form) Validate(errs salesshared.ErrorMap) (parsedForm, bool) {
	var parsed parsedForm

	clientID, err := uuid.Parse(strings.TrimSpace(f.ClientID))
	if err != nil || clientID == uuid.Nil {
		errs.Add("clientId", "Please select a client")
	} else {
		parsed.ClientID = clientID
	}

	if raw := strings.TrimSpace(f.InvoiceID); raw != "" {
		invoiceID, err := uuid.Parse(raw)
		if err != nil {
			errs.Add("invoiceId", "Invalid invoice reference")
		} else {
			parsed.InvoiceID = &invoiceID
		}
	}

	f.PumpModel = strings.TrimSpace(f.PumpModel)
	f.SerialNumber = strings.TrimSpace(f.SerialNumber)
	f.Brand = strings.TrimSpace(f.Brand)
	f.IssueDescription = strings.TrimSpace(f.IssueDescription)
	f.DiagnosisNotes = strings.TrimSpace(f.DiagnosisNotes)
	f.RepairNotes = strings.TrimSpace(f.RepairNotes)

	if f.PumpModel == "" {
		errs.Add("pumpModel", "Pump model is required")
	}
	if f.IssueDescription == "" {
		errs.Add("issueDescription", "Issue description is required")
	}
	salesshared.CheckStruct(f, errs)

	received, receivedOK := salesshared.ParseDate("dateReceived", f.DateReceived, "Date received is required", errs)
	parsed.DateReceived = received
	if raw := strings.TrimSpace(f.DateDelivered); raw != "" {
		delivered, ok := salesshared.ParseDate("dateDelivered", raw, "Date delivered is required", errs)
		if ok {
			if receivedOK {
				salesshared.CheckDateOrder("dateDelivered", received, delivered,
					"Date delivered must be on or after the date received", errs)
			}
			parsed.DateDelivered = &delivered
		}
	}

	if f.EstimatedCost < 0 {
		errs.Add("estimatedCost", "Cost cannot be negative")
	}
	if f.ActualCost < 0 {
		errs.Add("actualCost", "Cost cannot be negative")
	}
	if f.LaborCost < 0 {
		errs.Add("laborCost", "Cost cannot be negative")
	}

	parts := make([]Part, 0, len(f.PartsUsed))
	for i, part := range f.PartsUsed {
		part.Name = strings.TrimSpace(part.Name)
		if part.Name == "" {
			errs.Add(fmt.Sprintf("part_%d_name", i), "Part name is required")
			continue
		}
		if part.Quantity <= 0 {
			part.Quantity = 1
		}
		if part.Cost < 0 {
			part.Cost = 0
		}
		parts = append(parts, part)
	}
	parsed.PartsUsed = parts

	return parsed, !errs.Any()
}
