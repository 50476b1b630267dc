package middleware

import (
	"net/http"
)

// SecurityHeaders sets the response headers appropriate for a JSON/SSE API
// that is never rendered as a document. File URLs point at the object store,
// not this server, so no content-security policy is needed here.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
