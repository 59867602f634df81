package conversion

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/OmphileMokhuane/busman/internal/observability"
	"github.com/OmphileMokhuane/busman/internal/platform/httpx"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

type Handler struct {
	service *Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewHandler(service *Service, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	return &Handler{service: service, metrics: metrics, logger: logger}
}

// MountRoutes registers the conversion endpoint next to the quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quotations/{id}/convert", h.convert)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	quotationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	inv, err := h.service.Convert(r.Context(), userID, quotationID, req)
	if err != nil {
		if _, ok := shared.AsValidation(err); !ok {
			h.logger.Error("convert quotation", "error", err, "quotation_id", quotationID)
		}
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordConversion()
	httpx.JSON(w, http.StatusCreated, inv)
}
