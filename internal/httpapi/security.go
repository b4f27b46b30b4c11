package httpapi

import (
	"fmt"
	"net/http"
)

const hstsMaxAge = 31536000 // 1 year

// securityHeaders sets the response headers appropriate for a JSON
// API: no sniffing, no framing, no caching of ledger data. HSTS is
// only meaningful over TLS.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security",
				fmt.Sprintf("max-age=%d; includeSubDomains", hstsMaxAge))
		}
		next.ServeHTTP(w, r)
	})
}
