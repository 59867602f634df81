// Package clients manages the customer directory each document references.
// Clients are owned per user and cannot be removed while quotations, invoices
// or pump jobs still point at them.
package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer record. Company fields are optional as a pair: an
// address is required as soon as a company name is given.
type Client struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"userId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	CompanyName    string    `json:"companyName"`
	CompanyAddress string    `json:"companyAddress"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
