// Package metrics defines the Prometheus collectors of the console and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the console.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ImportRowsTotal      *prometheus.CounterVec
	ImportRunsTotal      *prometheus.CounterVec
	ImportDuration       prometheus.Histogram

	gatherer prometheus.Gatherer
}

var _ core.ImportObserver = (*Metrics)(nil)

// New creates the collectors and registers them with reg. When reg is also a
// prometheus.Gatherer, Handler serves it; otherwise the default gatherer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ImportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_import_rows_total",
				Help: "Imported post rows by outcome (accepted, rejected).",
			},
			[]string{"outcome"},
		),
		ImportRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_import_runs_total",
				Help: "Post import runs by status (ok, partial, failed).",
			},
			[]string{"status"},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "post_import_duration_seconds",
				Help:    "Duration of completed post import runs in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		gatherer: prometheus.DefaultGatherer,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ImportRowsTotal,
		m.ImportRunsTotal,
		m.ImportDuration,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveImportRow counts one reconciled row.
func (m *Metrics) ObserveImportRow(kind core.OutcomeKind) {
	m.ImportRowsTotal.WithLabelValues(kind.String()).Inc()
}

// ObserveImportRun counts a finished run. A run that returned an error is
// failed, one with rejected rows is partial.
func (m *Metrics) ObserveImportRun(result *core.ImportResult, err error) {
	status := "ok"
	switch {
	case err != nil || result == nil:
		status = "failed"
	case result.Rejected > 0:
		status = "partial"
	}
	m.ImportRunsTotal.WithLabelValues(status).Inc()
	if result != nil {
		m.ImportDuration.Observe(result.Duration.Seconds())
	}
}

// Middleware records request count, latency and in-flight requests. Routes
// are labelled by their chi pattern so path parameters do not explode the
// label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
