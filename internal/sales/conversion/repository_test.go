package conversion

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapConversionError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "invoices_quotation_once_idx"}
	assert.ErrorIs(t, mapConversionError(fmt.Errorf("insert invoice: %w", dup)), ErrAlreadyConverted)

	serialization := &pgconn.PgError{Code: "40001"}
	assert.ErrorIs(t, mapConversionError(fmt.Errorf("lock quotation: %w", serialization)), ErrAlreadyConverted)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapConversionError(other))

	assert.NoError(t, mapConversionError(nil))
}
