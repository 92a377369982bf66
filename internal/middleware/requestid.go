// Package middleware provides HTTP middleware for MediaScout.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Strob0t/MediaScout/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID tags every request with an identifier so the many log lines one
// recommendation run produces (task iterations, tool calls, enrichment) can
// be correlated. A caller-supplied X-Request-ID is honored; otherwise one is
// minted. The ID lands in the logger context and is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = newRequestID()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// newRequestID mints 16 random bytes as a 32-char hex string.
func newRequestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
