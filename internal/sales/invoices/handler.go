package invoices

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

// MountRoutes registers the invoice endpoints on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/status", h.setStatus)
		r.Post("/{id}/payments", h.recordPayment)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	var (
		list []Invoice
		err  error
	)
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		clientID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid clientId filter")
			return
		}
		list, err = h.service.ListByClient(r.Context(), userID, clientID)
	} else {
		list, err = h.service.List(r.Context(), userID)
	}
	if err != nil {
		h.logger.Error("list invoices", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	inv, err := h.service.Create(r.Context(), userID, form)
	if err != nil {
		if _, ok := shared.AsValidation(err); !ok {
			h.logger.Error("create invoice", "error", err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	inv, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var form Form
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	inv, err := h.service.Update(r.Context(), userID, id, form)
	if err != nil {
		if _, ok := shared.AsValidation(err); !ok {
			h.logger.Error("update invoice", "error", err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	inv, err := h.service.SetStatus(r.Context(), userID, id, body.Status)
	if err != nil {
		if _, ok := shared.AsValidation(err); !ok {
			h.logger.Error("set invoice status", "error", err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var form PaymentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	inv, err := h.service.RecordPayment(r.Context(), userID, id, form)
	if err != nil {
		if _, ok := shared.AsValidation(err); !ok {
			h.logger.Error("record payment", "error", err)
		}
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordPayment()
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
