package telemetry

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"postit/pkg/logger"
)

var slowThreshold atomic.Int64

func init() { slowThreshold.Store(int64(200 * time.Millisecond)) }

// SetSlowThreshold sets the duration above which a request is logged as slow.
// Zero disables slow request logging.
func SetSlowThreshold(d time.Duration) {
	if d < 0 {
		d = 0
	}
	slowThreshold.Store(int64(d))
}

// SlowThreshold returns the current slow request threshold.
func SlowThreshold() time.Duration { return time.Duration(slowThreshold.Load()) }

// Middleware records request counts and latency and logs slow requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		d := time.Since(start)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(d.Seconds())
		if th := SlowThreshold(); th > 0 && d >= th {
			logger.Warn("slow_request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", d.Milliseconds())
		}
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
