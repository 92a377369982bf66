package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Strob0t/MediaScout/internal/config"
)

func TestNewSyncUsesNopCloser(t *testing.T) {
	l, closer := New(config.Logging{Level: "debug", Service: "mediascout-test"})
	if l == nil {
		t.Fatal("New returned nil logger")
	}
	if _, ok := closer.(nopCloser); !ok {
		t.Fatalf("sync logger closer = %T, want nopCloser", closer)
	}
	closer.Close()
}

func TestNewAsyncReturnsFlushingCloser(t *testing.T) {
	l, closer := New(config.Logging{Level: "info", Service: "mediascout-test", Async: true})
	if l == nil {
		t.Fatal("New returned nil logger")
	}
	if _, ok := closer.(*AsyncHandler); !ok {
		t.Fatalf("async logger closer = %T, want *AsyncHandler", closer)
	}
	closer.Close()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo, // unknown falls back to info
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID on bare context = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "run-abc123")
	if got := RequestID(ctx); got != "run-abc123" {
		t.Errorf("RequestID = %q, want run-abc123", got)
	}
}
