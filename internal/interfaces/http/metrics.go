package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/starflux/internal/basis"
)

// apiEndpoints lists the route labels used by the request metrics. The
// snapshot in RequestStats iterates this set.
var apiEndpoints = []string{"health", "metrics", "lightcurve", "render", "solution", "notfound"}

var statusClasses = []string{"2xx", "3xx", "4xx", "5xx"}

// MetricsRegistry holds all Prometheus metrics for the flux service.
type MetricsRegistry struct {
	// Request metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge
	RateLimited     prometheus.Counter

	// Compute metrics
	ComputeDuration *prometheus.HistogramVec

	// Cache performance metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Engine state
	BasisCacheEntries prometheus.GaugeFunc

	registry *prometheus.Registry
}

// NewMetricsRegistry creates a metrics registry backed by its own
// Prometheus registry, so multiple servers can coexist in one process.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "starflux_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint", "status"},
		),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starflux_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status class",
			},
			[]string{"endpoint", "status"},
		),

		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "starflux_http_in_flight_requests",
				Help: "Number of HTTP requests currently being served",
			},
		),

		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "starflux_http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),

		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "starflux_compute_duration_seconds",
				Help:    "Duration of flux engine computations in seconds",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
			},
			[]string{"operation"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starflux_cache_hits_total",
				Help: "Total number of cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "starflux_cache_misses_total",
				Help: "Total number of cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		BasisCacheEntries: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "starflux_basis_cache_entries",
				Help: "Number of cached change-of-basis matrices",
			},
			func() float64 { return float64(basis.CacheSize()) },
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.InFlight,
		m.RateLimited,
		m.ComputeDuration,
		m.CacheHits,
		m.CacheMisses,
		m.BasisCacheEntries,
	)

	return m
}

// ComputeTimer tracks execution time for a flux engine operation.
type ComputeTimer struct {
	metrics   *MetricsRegistry
	operation string
	start     time.Time
}

// StartComputeTimer begins timing an engine computation.
func (m *MetricsRegistry) StartComputeTimer(operation string) *ComputeTimer {
	return &ComputeTimer{
		metrics:   m,
		operation: operation,
		start:     time.Now(),
	}
}

// Stop completes the timing and records the metric.
func (ct *ComputeTimer) Stop() {
	duration := time.Since(ct.start)
	ct.metrics.ComputeDuration.WithLabelValues(ct.operation).Observe(duration.Seconds())

	log.Debug().
		Str("operation", ct.operation).
		Dur("duration", duration).
		Msg("Computation completed")
}

// ObserveRequest records the duration and status class of a finished
// request.
func (m *MetricsRegistry) ObserveRequest(endpoint, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(endpoint, status).Observe(seconds)
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordCacheHit records a cache hit for the specified cache type.
func (m *MetricsRegistry) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the specified cache type.
func (m *MetricsRegistry) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *MetricsRegistry) RecordRateLimited() {
	m.RateLimited.Inc()
}

// RequestStats snapshots the request counters by status class, plus a
// grand total.
func (m *MetricsRegistry) RequestStats() map[string]float64 {
	stats := map[string]float64{"total": 0}
	var snapshot io_prometheus_client.Metric

	for _, endpoint := range apiEndpoints {
		for _, class := range statusClasses {
			counter, err := m.RequestsTotal.GetMetricWithLabelValues(endpoint, class)
			if err != nil {
				continue
			}
			if err := counter.Write(&snapshot); err != nil {
				continue
			}
			value := snapshot.GetCounter().GetValue()
			stats[class] += value
			stats["total"] += value
		}
	}

	return stats
}

// Handler returns an HTTP handler exposing this registry in the
// Prometheus text format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
