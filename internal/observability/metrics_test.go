package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	m := New()

	m.RecordConversion()
	m.RecordConversion()
	m.RecordPayment()
	m.RecordAllocationRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.numberRetries))
}

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/invoices/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/invoices/"+id, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	count := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/invoices/{id}", "200"))
	assert.Equal(t, 2.0, count)
}

func TestMetricsEndpoint(t *testing.T) {
	m := New()
	m.RecordConversion()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "busman_quotation_conversions_total 1")
}
