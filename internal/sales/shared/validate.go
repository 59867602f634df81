package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorMap collects field-level validation messages. Keys follow the form
// field names the clients submit, with per-item keys like "item_2_quantity".
// Validators fill the whole map in one pass; they never stop at the first
// failure.
type ErrorMap map[string]string

// Add records a message for a field unless one is already present. The first
// message for a field wins, matching the order checks are declared in.
func (e ErrorMap) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// Any reports whether at least one error was collected.
func (e ErrorMap) Any() bool {
	return len(e) > 0
}

const dateLayout = "2006-01-02"

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// CheckStruct runs validator tags over a form struct and folds failures into
// the error map keyed by the lower-cased field name.
func CheckStruct(form any, errs ErrorMap) {
	err := structValidator.Struct(form)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("general", "invalid form data")
		return
	}
	for _, fe := range fieldErrs {
		name := fe.Field()
		key := strings.ToLower(name[:1]) + name[1:]
		errs.Add(key, validationMessage(fe))
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	default:
		return "Invalid value"
	}
}

// ParseDate validates a required yyyy-mm-dd form value, recording an error
// under field when missing or unparseable.
func ParseDate(field, value, requiredMsg string, errs ErrorMap) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, requiredMsg)
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		errs.Add(field, "Invalid date")
		return time.Time{}, false
	}
	return t, true
}

// CheckDateOrder records an error under field when secondary falls before
// primary. Both documents kinds use the on-or-after rule.
func CheckDateOrder(field string, primary, secondary time.Time, message string, errs ErrorMap) {
	if secondary.Before(primary) {
		errs.Add(field, message)
	}
}

// CheckItems validates the embedded line item list: at least one entry, and
// each entry a non-blank description, positive quantity and positive unit
// price. Errors are keyed per item per field.
func CheckItems(items []LineItem, errs ErrorMap) {
	if len(items) == 0 {
		errs.Add("items", "Please add at least one line item")
		return
	}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			errs.Add(fmt.Sprintf("item_%d_description", i), "Description is required")
		}
		if item.Quantity <= 0 {
			errs.Add(fmt.Sprintf("item_%d_quantity", i), "Quantity must be greater than 0")
		}
		if item.UnitPrice <= 0 {
			errs.Add(fmt.Sprintf("item_%d_unitPrice", i), "Unit price must be greater than 0")
		}
	}
}

// CheckTaxRate enforces the 0..100 percentage bound.
func CheckTaxRate(rate float64, errs ErrorMap) {
	if rate < 0 || rate > 100 {
		errs.Add("taxRate", "Tax rate must be between 0 and 100")
	}
}
