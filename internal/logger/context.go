package logger

import "context"

// ctxKey keeps this package's context values collision-free.
type ctxKey struct{}

var requestIDKey = ctxKey{}

// WithRequestID stores the request ID for downstream log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored by the middleware, or "" when the
// context carries none (background work, tests).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
