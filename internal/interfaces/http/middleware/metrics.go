// Package middleware provides the gin middleware of the Stoflow API.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP metric names
const (
	MetricHTTPRequestsTotal   = "stoflow_http_requests_total"
	MetricHTTPRequestDuration = "stoflow_http_request_duration_seconds"
	MetricHTTPActiveRequests  = "stoflow_http_active_requests"
)

// HTTPDurationBuckets covers fast reads up to slow batch creations
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type httpMetrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) (*httpMetrics, error) {
	m := &httpMetrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency in seconds.",
			Buckets: HTTPDurationBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricHTTPActiveRequests,
			Help: "HTTP requests currently being served.",
		}),
	}
	for _, c := range []prometheus.Collector{m.requestTotal, m.requestDuration, m.activeRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// HTTPMetrics records request count, latency and concurrency on reg.
// Labels use the route pattern, not the raw path. A nil registerer or a
// registration failure yields a pass-through middleware.
func HTTPMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	if reg == nil {
		return func(c *gin.Context) { c.Next() }
	}
	m, err := newHTTPMetrics(reg)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.activeRequests.Inc()

		c.Next()

		m.activeRequests.Dec()
		route := getRoutePattern(c)
		method := c.Request.Method
		m.requestTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// getRoutePattern returns the route pattern (e.g. "/api/v1/jobs/:id")
func getRoutePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unknown"
	}
	return route
}

// HTTPMetricsStatusGroup groups status codes by class (2xx, 4xx, 5xx)
func HTTPMetricsStatusGroup(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}
