package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops an async handler at shutdown.
type Closer interface {
	Close()
}

// nopCloser is returned when logging runs synchronously.
type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler decouples log emission from the request path by queueing
// records onto a buffered channel drained by background workers. A run's
// hot loop (agent task iterations, cache reads) never blocks on stdout;
// when the queue is full the record is dropped and counted instead.
type AsyncHandler struct {
	inner   slog.Handler
	queue   chan slog.Record
	wg      *sync.WaitGroup
	dropped *atomic.Int64
}

// NewAsyncHandler wraps inner with a queue of the given capacity drained by
// the given number of workers.
func NewAsyncHandler(inner slog.Handler, queueSize, workers int) *AsyncHandler {
	h := &AsyncHandler{
		inner:   inner,
		queue:   make(chan slog.Record, queueSize),
		wg:      &sync.WaitGroup{},
		dropped: &atomic.Int64{},
	}
	for range workers {
		h.wg.Add(1)
		go h.drain()
	}
	return h
}

func (h *AsyncHandler) drain() {
	defer h.wg.Done()
	for rec := range h.queue {
		_ = h.inner.Handle(context.Background(), rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.queue <- rec:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs derives a handler over the same queue with attrs applied to the
// inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithAttrs(attrs),
		queue:   h.queue,
		wg:      h.wg,
		dropped: h.dropped,
	}
}

// WithGroup derives a handler over the same queue with the group applied to
// the inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{
		inner:   h.inner.WithGroup(name),
		queue:   h.queue,
		wg:      h.wg,
		dropped: h.dropped,
	}
}

// DroppedCount reports how many records were discarded on a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close stops intake and blocks until the workers have flushed the queue.
func (h *AsyncHandler) Close() {
	close(h.queue)
	h.wg.Wait()
}
