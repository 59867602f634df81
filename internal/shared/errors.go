package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the record does not exist for the requesting owner.
	// Wrong-owner lookups report the same error so tenants cannot probe each
	// other's ids.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a caller-recoverable domain conflict such as a
	// duplicate email, an already-converted quotation or a blocked delete.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates the request carries no authenticated user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCSRFTokenMissing occurs when the CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

type domainError struct {
	sentinel error
	msg      string
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return e.sentinel }

// Conflict returns an error that matches ErrConflict under errors.Is while
// presenting the given caller-facing message.
func Conflict(msg string) error {
	return &domainError{sentinel: ErrConflict, msg: msg}
}

// ValidationError carries the full field error map collected by a validator
// pass. It is returned to the caller as-is and never logged as exceptional.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError wraps a field error map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// AsValidation unwraps a ValidationError if err carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
