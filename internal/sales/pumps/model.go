// Package pumps tracks pump repair jobs from intake to delivery. A finished
// job can be linked to the invoice that bills it.
package pumps

import (
	"time"

	"github.com/google/uuid"
)

// Status is the repair workshop state of a pump job.
type Status string

const (
	StatusReceived        Status = "received"
	StatusInDiagnosis     Status = "in-diagnosis"
	StatusAwaitingParts   Status = "awaiting-parts"
	StatusInRepair        Status = "in-repair"
	StatusRepaired        Status = "repaired"
	StatusReadyCollection Status = "ready-collection"
	StatusDelivered       Status = "delivered"
)

// Valid reports whether s is one of the known workshop states.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusInDiagnosis, StatusAwaitingParts, StatusInRepair,
		StatusRepaired, StatusReadyCollection, StatusDelivered:
		return true
	}
	return false
}

// Part is one part consumed during a repair.
type Part struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// Pump is one repair job. TotalCost is derived as actual plus labor cost.
type Pump struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"userId"`
	ClientID         uuid.UUID  `json:"clientId"`
	InvoiceID        *uuid.UUID `json:"invoiceId,omitempty"`
	PumpModel        string     `json:"pumpModel"`
	SerialNumber     string     `json:"serialNumber"`
	Brand            string     `json:"brand"`
	Status           Status     `json:"status"`
	DateReceived     time.Time  `json:"dateReceived"`
	DateDelivered    *time.Time `json:"dateDelivered,omitempty"`
	IssueDescription string     `json:"issueDescription"`
	DiagnosisNotes   string     `json:"diagnosisNotes"`
	RepairNotes      string     `json:"repairNotes"`
	PartsUsed        []Part     `json:"partsUsed"`
	EstimatedCost    float64    `json:"estimatedCost"`
	ActualCost       float64    `json:"actualCost"`
	LaborCost        float64    `json:"laborCost"`
	TotalCost        float64    `json:"totalCost"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
