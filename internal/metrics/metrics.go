// Package metrics provides Prometheus metrics for the job sync service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	upstreamRequests        *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec

	postingsFetched   *prometheus.CounterVec
	postingsSaved     *prometheus.CounterVec
	ingestionFailures *prometheus.CounterVec
	historicalWindows *prometheus.CounterVec
	statsCache        *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

var globalManager = NewManager() //nolint:gochecknoglobals // process-wide metrics registry

// NewManager builds a Manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jobsync",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "upstream_requests_total",
		Help:      "Calls to the France Travail API by operation and outcome",
	}, []string{"operation", "outcome"})

	m.upstreamRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "upstream_request_duration_milliseconds",
		Help:      "France Travail API latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.postingsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "postings_fetched_total",
		Help:      "Postings returned by the upstream API",
	}, []string{"source"})

	m.postingsSaved = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "postings_saved_total",
		Help:      "Postings committed to the store",
	}, []string{"table"})

	m.ingestionFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ingestion_failures_total",
		Help:      "Failed ingestion runs by source and stage",
	}, []string{"source", "stage"})

	m.historicalWindows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "historical_windows_total",
		Help:      "Historical date windows fetched by result",
	}, []string{"result"})

	m.statsCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stats_cache_total",
		Help:      "Stats cache lookups by result",
	}, []string{"result"})
}

// Registry returns the registry the manager's collectors live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// GetRegistry returns the process-wide registry.
func GetRegistry() *prometheus.Registry { return globalManager.registry }

// Handler serves the process-wide registry in the exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(globalManager.registry, promhttp.HandlerOpts{})
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordUpstreamRequest counts a token or search call; outcome is "ok" or "error".
func RecordUpstreamRequest(operation, outcome string, durationMs float64) {
	globalManager.upstreamRequests.WithLabelValues(operation, outcome).Inc()
	globalManager.upstreamRequestDuration.WithLabelValues(operation).Observe(durationMs)
}

func RecordPostingsFetched(source string, n int) {
	globalManager.postingsFetched.WithLabelValues(source).Add(float64(n))
}

func RecordPostingsSaved(table string, n int) {
	globalManager.postingsSaved.WithLabelValues(table).Add(float64(n))
}

func RecordIngestionFailure(source, stage string) {
	globalManager.ingestionFailures.WithLabelValues(source, stage).Inc()
}

// RecordHistoricalWindow counts one window; result is "ok", "empty" or "error".
func RecordHistoricalWindow(result string) {
	globalManager.historicalWindows.WithLabelValues(result).Inc()
}

// RecordStatsCache counts one lookup; result is "hit", "miss" or "error".
func RecordStatsCache(result string) {
	globalManager.statsCache.WithLabelValues(result).Inc()
}
