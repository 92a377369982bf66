package mcp

import (
	"net/http"
	"strings"
)

// AuthMiddleware guards the SSE transport with a shared API key. The key is
// accepted either as a Bearer token or as the bare Authorization value. An
// empty configured key disables the check, which is the stdio-transport and
// local-development default.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token != apiKey {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
