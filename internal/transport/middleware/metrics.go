package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rentably/rent-collection/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Metrics records request latency labeled by method and status class.
// Paths are deliberately not a label: payment ids would explode the
// cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		statusClass := strconv.Itoa(rec.status/100) + "xx"
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, statusClass).Observe(time.Since(start).Seconds())
	})
}
