package clients

import (
	"regexp"
	"strings"

	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneChars   = regexp.MustCompile(`^[\d\s()+-]+$`)
	digitPattern = regexp.MustCompile(`\d`)
)

// Form is the create and update payload for a client.
type Form struct {
	Name           string `json:"name" validate:"max=200"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	CompanyName    string `json:"companyName" validate:"max=200"`
	CompanyAddress string `json:"companyAddress" validate:"max=500"`
	Notes          string `json:"notes"`
}

// Normalize trims whitespace and lowercases the email so the duplicate check
// and storage see one canonical form.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.CompanyAddress = strings.TrimSpace(f.CompanyAddress)
	f.Notes = strings.TrimSpace(f.Notes)
}

// Validate collects all field errors in one pass.
func (f *Form) Validate(errs salesshared.ErrorMap) {
	if len(f.Name) < 2 {
		errs.Add("name", "Name must be at least 2 characters long")
	}
	if f.Email == "" {
		errs.Add("email", "Email is required")
	} else if !emailPattern.MatchString(f.Email) {
		errs.Add("email", "Please enter a valid email address")
	}
	if f.Phone != "" && !validPhone(f.Phone) {
		errs.Add("phone", "Please enter a valid phone number")
	}
	if f.CompanyName != "" && f.CompanyAddress == "" {
		errs.Add("companyAddress", "Company address is required when company name is provided")
	}
	salesshared.CheckStruct(f, errs)
}

// validPhone accepts digits with common separators and requires at least ten
// digits overall.
func validPhone(phone string) bool {
	if !phoneChars.MatchString(phone) {
		return false
	}
	return len(digitPattern.FindAllString(phone, -1)) >= 10
}
