// Package workpool bounds concurrent outbound provider calls with a weighted
// semaphore. Rating enrichment fans out one lookup per record; a shared Pool
// keeps a burst of records from opening that many upstream connections at
// once.
package workpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent operations. The zero of *Pool is usable: a nil pool
// applies no limit.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a Pool that allows at most limit concurrent operations.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot. It blocks while all
// slots are busy and returns ctx.Err() if the context is cancelled during
// the wait.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
