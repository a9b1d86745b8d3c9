package server

import (
	"net/http"
	"strconv"
	"time"

	"opscheck/internal/sse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
// so tests can run many servers without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	toolExecutions  *prometheus.CounterVec
}

// NewMetrics creates the collectors. The active-connections gauge reads
// straight from the connection manager so it can never drift.
func NewMetrics(manager *sse.Manager) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opscheck_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opscheck_request_duration_seconds",
			Help:    "HTTP request latency by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		toolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opscheck_tool_executions_total",
			Help: "Tool executions by tool name and outcome.",
		}, []string{"tool", "status"}),
	}

	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.toolExecutions)
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "opscheck_sse_connections_active",
		Help: "Currently open SSE connections.",
	}, func() float64 {
		return float64(manager.Count())
	}))

	return m
}

// Handler serves the exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveToolExecution records one tool run.
func (m *Metrics) ObserveToolExecution(tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.toolExecutions.WithLabelValues(tool, status).Inc()
}

// statusRecorder captures the response code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps the wrapped writer usable for SSE streaming.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument wraps a handler with request counting and latency tracking.
// The path label is the route pattern, never the raw URL, to keep the
// metric cardinality bounded.
func (m *Metrics) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}
