// Package metrics defines the Prometheus metric collectors used by the
// statistics engine and the stats API, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	PassDuration         *prometheus.HistogramVec
	DocumentsTotal       *prometheus.CounterVec
	ReportPeriods        prometheus.Gauge
	FallbacksTotal       *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	RecordsPublished     *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all metrics and registers them with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them with reg. Tests
// pass a fresh prometheus.NewRegistry() so repeated construction does not
// panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodstats_runs_total",
				Help: "Statistics runs by outcome (ok, cached, error).",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "periodstats_run_duration_seconds",
				Help:    "Wall time of a full statistics run.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
		),
		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "periodstats_pass_duration_seconds",
				Help:    "Wall time of a single collection pass.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
			[]string{"pass"},
		),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodstats_documents_total",
				Help: "Documents seen per pass by outcome (admitted, out_of_range, skipped).",
			},
			[]string{"pass", "outcome"},
		),
		ReportPeriods: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "periodstats_report_periods",
				Help: "Number of reporting periods in the last report.",
			},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodstats_fallbacks_total",
				Help: "Aggregates carried forward from the previous period, by aggregate.",
			},
			[]string{"aggregate"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of report cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of report cache misses.",
			},
		),
		RecordsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodstats_records_published_total",
				Help: "Export series records published to Kafka by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RunsTotal,
		m.RunDuration,
		m.PassDuration,
		m.DocumentsTotal,
		m.ReportPeriods,
		m.FallbacksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RecordsPublished,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
