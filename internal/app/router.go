package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/OmphileMokhuane/busman/internal/observability"
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	"github.com/OmphileMokhuane/busman/internal/sales/conversion"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/internal/sales/pumps"
	"github.com/OmphileMokhuane/busman/internal/sales/quotations"
	"github.com/OmphileMokhuane/busman/internal/settings"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	SettingsHandler   *settings.Handler
	ClientsHandler    *clients.Handler
	QuotationsHandler *quotations.Handler
	InvoicesHandler   *invoices.Handler
	PumpsHandler      *pumps.Handler
	ConversionHandler *conversion.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with busman defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"csrfToken":"` + token + `"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		params.SettingsHandler.MountRoutes(r)
		params.ClientsHandler.MountRoutes(r)
		params.QuotationsHandler.MountRoutes(r)
		params.ConversionHandler.MountRoutes(r)
		params.InvoicesHandler.MountRoutes(r)
		params.PumpsHandler.MountRoutes(r)
	})

	return r
}
