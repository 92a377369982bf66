package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

// maxTrackedIPs caps the bucket map so an address-rotating client cannot
// grow it without bound.
const maxTrackedIPs = 100000

// RateLimiter throttles requests per client IP with a token bucket. One
// recommendation request fans out into several LLM and content-API calls,
// so the per-IP bucket is the knob that protects the upstream budget.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens refilled per second
	burst   int     // bucket capacity
}

type bucket struct {
	tokens    float64
	lastSeen  time.Time
	updatedAt time.Time
}

// NewRateLimiter creates a limiter with the given sustained rate (requests
// per second) and burst size.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
	}
}

// Handler enforces the limit and annotates responses with X-RateLimit
// headers; a rejected request gets 429 plus Retry-After.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, retryAfter, allowed := rl.take(clientIP(r))

		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Second).Unix()))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take consumes one token for ip, reporting the remaining tokens, the wait
// in seconds until the next token when rejected, and the verdict.
func (rl *RateLimiter) take(ip string) (remaining int, retryAfter float64, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= maxTrackedIPs {
			return 0, 1.0 / rl.rate, false
		}
		b = &bucket{
			tokens:    float64(rl.burst) - 1, // this request's token
			updatedAt: now,
			lastSeen:  now,
		}
		rl.buckets[ip] = b
		return int(b.tokens), 0, true
	}

	b.tokens = min(b.tokens+now.Sub(b.updatedAt).Seconds()*rl.rate, float64(rl.burst))
	b.updatedAt = now
	b.lastSeen = now

	if b.tokens < 1 {
		return 0, (1 - b.tokens) / rl.rate, false
	}
	b.tokens--
	return int(b.tokens), 0, true
}

// StartCleanup evicts buckets idle longer than maxIdle on the given
// interval. The returned function stops the sweeper.
func (rl *RateLimiter) StartCleanup(interval, maxIdle time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.evictIdle(maxIdle)
			}
		}
	}()
	return cancel
}

func (rl *RateLimiter) evictIdle(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// Len reports the number of tracked IPs.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// clientIP is the connection peer address. Forwarding headers are ignored
// on purpose: they are client-controlled and would let anyone mint fresh
// buckets per request.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
