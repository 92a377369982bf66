// Package logger provides structured logging setup for MediaScout.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/MediaScout/internal/config"
)

// New creates a *slog.Logger from the given Logging config with a "service"
// attribute on every record. Format selects the JSON (default) or text
// handler. With Async set the handler is wrapped in a buffered AsyncHandler;
// the returned Closer flushes it at shutdown and is a no-op otherwise.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, 1024, 1)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
