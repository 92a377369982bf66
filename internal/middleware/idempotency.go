package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	headerIdempotencyKey = "Idempotency-Key"

	// maxIdempotencyBody bounds what gets stored per key. A recommendation
	// response is a few KB; anything past 1 MB is not worth replaying.
	maxIdempotencyBody = 1 << 20
)

// storedResponse is the JSON shape kept in the KV bucket.
type storedResponse struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency replays cached responses for repeated mutating requests that
// carry the same Idempotency-Key header. A retried POST /recommendations
// then returns the first run's list instead of spending a second pipeline
// run. Reads and requests without the header pass straight through; storage
// is best-effort over a NATS JetStream KV bucket.
func Idempotency(kv jetstream.KeyValue) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(headerIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if entry, err := kv.Get(r.Context(), key); err == nil {
				if replay(w, entry.Value()) {
					return
				}
				slog.Warn("idempotency: corrupt cache entry", "key", key)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.body.Len() > maxIdempotencyBody {
				return
			}
			data, err := json.Marshal(storedResponse{
				StatusCode: rec.statusCode,
				Headers:    w.Header().Clone(),
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if _, err := kv.Put(r.Context(), key, data); err != nil {
				slog.Warn("idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// replay writes a stored response, reporting whether the entry decoded.
func replay(w http.ResponseWriter, raw []byte) bool {
	var cached storedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return false
	}
	for k, vals := range cached.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
	return true
}

// responseRecorder tees the response so it can be stored after serving.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
