package httpapi

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"tally/internal/log"
)

// requestLogging emits one line at request start and one at completion
// with status and duration. Runs after chi's RequestID middleware so
// both lines carry the same request id.
func requestLogging(logger *log.Logger) func(http.Handler) http.Handler {
	rl := log.NewRequestLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chimw.GetReqID(r.Context())
			rl.LogHTTPStart(r.Context(), r, requestID)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			rl.LogHTTPEnd(r.Context(), r, ww.Status(), time.Since(start).Milliseconds(), requestID)
		})
	}
}
