package observability

import (
	"net/http"
	"strconv"
	"time"
)

// unmatchedRoute labels requests no ServeMux pattern claimed.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records pinpoint_requests_total,
// pinpoint_request_duration_seconds, pinpoint_requests_in_flight and
// pinpoint_response_bytes for every request served by next.
//
// Routes are labelled with the ServeMux pattern that matched, so
// /uploads/{name} stays one series however many images are stored.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		rec := &responseRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := routeLabel(r)
		RequestsTotal.WithLabelValues(r.Method, statusClass(rec.statusCode()), route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		ResponseBytes.WithLabelValues(route).Observe(float64(rec.bytes))
	})
}

// routeLabel reads the pattern ServeMux stored on r.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedRoute
	}
	return r.Pattern
}

// statusClass turns 404 into "4xx".
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// responseRecorder remembers the status and counts body bytes on the way
// through. A handler that never calls WriteHeader answered 200.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rr *responseRecorder) statusCode() int {
	if rr.status == 0 {
		return http.StatusOK
	}
	return rr.status
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.status == 0 {
		rr.status = code
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += int64(n)
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}
