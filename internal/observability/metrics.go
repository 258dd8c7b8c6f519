// Package observability owns the Prometheus collectors exported on /metrics.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	queryDuration     prometheus.Histogram
	queryErrors       *prometheus.CounterVec
	readingsServed    prometheus.Histogram
	cacheResults      *prometheus.CounterVec
	cacheInvalidated  prometheus.Counter
}

// NewMetrics registers every collector on a private registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readings_query_duration_seconds",
			Help:    "Histogram of recent-readings query durations.",
			Buckets: prometheus.DefBuckets,
		}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readings_query_errors_total",
			Help: "Recent-readings failures by kind.",
		}, []string{"kind"}),
		readingsServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readings_served_per_request",
			Help:    "Number of readings returned per request.",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "response_cache_total",
			Help: "Response cache lookups by result (hit, miss).",
		}, []string{"result"}),
		cacheInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "response_cache_invalidations_total",
			Help: "Times the response cache was dropped after new readings arrived.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.queryDuration,
		m.queryErrors,
		m.readingsServed,
		m.cacheResults,
		m.cacheInvalidated,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveQuery records one GetRecentReadings call.  kind is empty on success.
func (m *Metrics) ObserveQuery(d time.Duration, served int, kind string) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
	if kind != "" {
		m.queryErrors.WithLabelValues(kind).Inc()
		return
	}
	m.readingsServed.Observe(float64(served))
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheResults.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheResults.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheInvalidated() {
	if m != nil {
		m.cacheInvalidated.Inc()
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
