// Package observability provides Prometheus metrics, HTTP middleware and
// OpenTelemetry tracing setup for the pinpoint gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// InferenceBuckets defines histogram buckets suited for vision model
// latencies, ranging from 100ms to 120s.
var InferenceBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinpoint_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinpoint_request_duration_seconds",
			Help:    "Request duration",
			Buckets: InferenceBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks HTTP requests currently being served. Annotate
	// calls hold a slot for the whole backend round trip.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pinpoint_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// ResponseBytes records response body sizes by route.
	ResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinpoint_response_bytes",
			Help:    "Response body size",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"route"},
	)

	// ProviderRequestsTotal counts requests sent to vision backends.
	// status is "ok" or the api error type of the failure.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinpoint_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "status"},
	)

	// ProviderLatency records backend round trip latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinpoint_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: InferenceBuckets,
		},
		[]string{"provider"},
	)

	// AnnotationsTotal counts normalized replies by outcome (structured/raw).
	AnnotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinpoint_normalize_outcomes_total",
			Help: "Normalization outcomes",
		},
		[]string{"provider", "outcome"},
	)

	// UploadsTotal counts stored uploads by status.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinpoint_uploads_total",
			Help: "Uploads",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		ResponseBytes,
		ProviderRequestsTotal,
		ProviderLatency,
		AnnotationsTotal,
		UploadsTotal,
	)
}
