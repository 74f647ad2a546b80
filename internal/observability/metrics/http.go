package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics instruments the API surface.
type HTTPMetrics struct {
	registry *prometheus.Registry
	service  string

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(service string) *HTTPMetrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vcc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status code.",
		},
		[]string{"service", "method", "path", "code"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vcc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)
	return &HTTPMetrics{
		registry:        registry,
		service:         service,
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware wraps a handler and records request counters and latency. The
// path label uses the route pattern passed by the router, not the raw URL,
// to keep cardinality bounded.
func (m *HTTPMetrics) Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.requestsTotal.WithLabelValues(m.service, r.Method, pattern, strconv.Itoa(recorder.code)).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
