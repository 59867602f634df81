// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/OmphileMokhuane/busman/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Validation
// failures include the collected field error map; infrastructure errors are
// reduced to a generic retry-later message so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	if ve, ok := shared.AsValidation(err); ok {
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Errors: ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "Something went wrong. Please try again.")
	}
}
