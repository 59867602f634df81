// Package observability wires Prometheus metrics for the HTTP surface and a
// few domain-level counters.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the registry and every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	conversionsTotal prometheus.Counter
	paymentsTotal    prometheus.Counter
	numberRetries    prometheus.Counter
}

// New builds the metrics set on a fresh registry, including the standard Go
// and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busman_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "busman_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		conversionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busman_quotation_conversions_total",
			Help: "Quotations successfully converted to invoices.",
		}),
		paymentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busman_payments_recorded_total",
			Help: "Payments successfully recorded against invoices.",
		}),
		numberRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busman_number_allocation_retries_total",
			Help: "Document number allocations retried after a collision.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.conversionsTotal,
		m.paymentsTotal,
		m.numberRetries,
	)
	return m
}

// RecordConversion counts one successful quotation conversion.
func (m *Metrics) RecordConversion() { m.conversionsTotal.Inc() }

// RecordPayment counts one successfully recorded payment.
func (m *Metrics) RecordPayment() { m.paymentsTotal.Inc() }

// RecordAllocationRetry counts one number collision retry.
func (m *Metrics) RecordAllocationRetry() { m.numberRetries.Inc() }

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency per chi route pattern, so
// /invoices/{id} stays one series regardless of the concrete id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
