// Package telemetry unifies OpenTelemetry tracing and Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Preview outcomes recorded by ObservePreview.
const (
	OutcomeRendered     = "rendered"
	OutcomeRedirected   = "redirected"
	OutcomeMissingSlug  = "missing_slug"
	OutcomeNotFound     = "not_found"
	OutcomeFailed       = "failed"
	LookupByID          = "id"
	LookupBySlug        = "slug"
	LookupResultFound   = "found"
	LookupResultMissing = "missing"
	LookupResultError   = "error"
	CacheHit            = "hit"
	CacheMiss           = "miss"
	CacheError          = "error"
)

var (
	previewRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharepreview_requests_total",
			Help: "Total number of share preview requests, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharepreview_lookups_total",
			Help: "Total number of post store lookups, labeled by method and result.",
		},
		[]string{"method", "result"},
	)

	lookupDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharepreview_lookup_duration_seconds",
			Help:    "Histogram of post store lookup latencies, labeled by method.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"method"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharepreview_cache_lookups_total",
			Help: "Total number of post cache reads, labeled by result.",
		},
		[]string{"result"},
	)

	throttleDelaySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sharepreview_backend_throttle_seconds",
			Help:    "Histogram of time lookups spent waiting on the backend rate limiter.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObservePreview records the terminal outcome of a share preview request.
func ObservePreview(outcome string) {
	previewRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLookup records one post store lookup.
func ObserveLookup(method, result string, duration time.Duration) {
	lookupsTotal.WithLabelValues(method, result).Inc()
	lookupDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveCache records one post cache read.
func ObserveCache(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveThrottle records time spent waiting on the backend rate limiter.
func ObserveThrottle(d time.Duration) {
	throttleDelaySeconds.Observe(d.Seconds())
}
