package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegistry builds the process-wide metrics registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Metrics exposes application-level instruments.
type Metrics struct {
	scans            *prometheus.CounterVec
	scanDuration     *prometheus.HistogramVec
	providerRequests *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the domain instruments on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanbase_scans_total",
			Help: "Resolved scans by code type, source and cost status.",
		}, []string{"code_type", "source", "cost_status"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanbase_scan_duration_seconds",
			Help:    "End to end scan resolution latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"code_type"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanbase_provider_requests_total",
			Help: "Upstream provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanbase_rate_limit_denied_total",
			Help: "Requests refused by the tenant rate limiter.",
		}, []string{"endpoint"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanbase_http_requests_total",
			Help: "Inbound HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanbase_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.scans,
		m.scanDuration,
		m.providerRequests,
		m.rateLimitDenied,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordScan counts one completed resolution.
func (m *Metrics) RecordScan(codeType, source, costStatus string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(codeType, source, costStatus).Inc()
	m.scanDuration.WithLabelValues(codeType).Observe(elapsed.Seconds())
}

// RecordProviderRequest counts one upstream call.
func (m *Metrics) RecordProviderRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, outcome).Inc()
}

// RecordRateLimitDenied counts one refused request.
func (m *Metrics) RecordRateLimitDenied(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(endpoint).Inc()
}

// GinMiddleware instruments inbound HTTP requests. Routes are recorded
// by template, not raw path, to keep cardinality bounded.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
