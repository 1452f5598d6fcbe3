package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// bookingLimiter caps visitor booking attempts per client IP.
func bookingLimiter(perSecond int) func(http.Handler) http.Handler {
	return httprate.Limit(perSecond, time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":429,"response":"too many booking attempts"}`))
		}),
	)
}
