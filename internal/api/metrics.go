package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Callback outcomes recorded in finch_callbacks_total
const (
	ResultSuccess          = "success"
	ResultExchangeFailed   = "exchange_failed"
	ResultIntrospectFailed = "introspect_failed"
	ResultPersistFailed    = "persist_failed"
)

type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	callbacks *prometheus.CounterVec
	gatherer  prometheus.Gatherer
}

// NewMetrics registers the service collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finch_http_requests_total",
			Help: "HTTP requests handled, by method, route and status",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finch_callbacks_total",
			Help: "Finch callback attempts by result",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.duration, m.callbacks)
	return m
}

func (m *Metrics) observeCallback(result string) {
	m.callbacks.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
