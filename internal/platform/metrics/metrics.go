// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RecommendationAttempts counts calls to the recommendation API by outcome
	// (success, status_error, transport_error).
	RecommendationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_recommendation_attempts_total",
			Help: "Attempts made against the external recommendation API",
		},
		[]string{"outcome"},
	)

	RecommendationExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_recommendation_exhausted_total",
			Help: "Recommendation fetches that used every attempt without a success",
		},
	)
)

// RecordHTTPRequest records a finished request. route should be the matched
// ServeMux pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
