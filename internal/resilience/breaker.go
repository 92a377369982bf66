// Package resilience provides reliability patterns for calls to external
// services, primarily the LLM gateway the agent pipeline depends on.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is rejecting calls outright.
// Callers treat it as a fatal error: the gateway is known-down, so retrying
// within the open window only burns the request budget.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker is a consecutive-failure circuit breaker. After maxFailures
// failures in a row it opens and rejects every call for the cooldown
// period, then admits a single probe (half-open). A failed probe re-opens
// the circuit immediately; a success closes it and resets the count.
type Breaker struct {
	mu       sync.Mutex
	state    breakerState
	failures int

	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time

	now func() time.Time // stubbed in tests
}

// NewBreaker returns a closed Breaker that opens after maxFailures
// consecutive failures and stays open for the given cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without invoking fn. The outcome of fn feeds the breaker's
// state transition.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed, stateHalfOpen:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			return true
		}
		return false
	}
	return false
}

// recordFailure requires b.mu.
func (b *Breaker) recordFailure() {
	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// recordSuccess requires b.mu.
func (b *Breaker) recordSuccess() {
	b.failures = 0
	b.state = stateClosed
}
