package middleware

import (
	"net/http"
	"time"

	"gym-booking/pkg/metrics"
)

// Metrics records request durations per method and status code.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			metrics.ObserveHTTPRequest(r.Method, rw.statusCode, time.Since(start))
		})
	}
}
