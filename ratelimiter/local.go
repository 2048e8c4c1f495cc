package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is an in-memory, per-process request limiter.
type RateLimiter struct {
	bucket *TokenBucket
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New initializes a rate limiter allowing requestsPerMinute requests,
// replenished over a one minute window.
func New(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		bucket: NewTokenBucket(requestsPerMinute, requestsPerMinute, time.Minute),
	}
}

// HasCapacity checks if n requests are available WITHOUT consuming them.
func (rl *RateLimiter) HasCapacity(n int) bool {
	return rl.bucket.HasCapacity(n)
}

// TryConsume atomically checks capacity and consumes n requests if available.
func (rl *RateLimiter) TryConsume(n int) bool {
	return rl.bucket.Consume(n)
}

// TimeUntilAvailable returns how long until n requests would be available.
// This does not modify state - use for informational purposes.
func (rl *RateLimiter) TimeUntilAvailable(n int) time.Duration {
	return rl.bucket.TimeUntilAvailable(n)
}

// WaitAndConsume waits until n requests are available (up to maxWait), then
// consumes them. If maxWait is 0, there is no limit on how long to wait.
// Returns an error if the context is cancelled or maxWait is exceeded.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, n int, maxWait time.Duration) error {
	waitDuration := rl.TimeUntilAvailable(n)

	if waitDuration > 0 {
		if maxWait > 0 && waitDuration > maxWait {
			return fmt.Errorf("rate limit wait time %v exceeds max wait %v", waitDuration, maxWait)
		}

		timer := time.NewTimer(waitDuration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if !rl.TryConsume(n) {
		// Shouldn't happen normally, but handle edge case
		return fmt.Errorf("failed to acquire capacity after waiting")
	}

	return nil
}

// TokenBucket implements a token bucket rate limit algorithm.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      int
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      initialTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
	}
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	remaining := tb.remaining
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		remaining = tb.capacity
	}
	return tokens <= remaining
}

// Consume tries to consume a specified number of tokens from the bucket.
func (tb *TokenBucket) Consume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		tb.remaining = tb.capacity
		tb.lastRefill = now
	}
	if tokens <= tb.remaining {
		tb.remaining -= tokens
		return true
	}
	return false
}

// TimeUntilAvailable returns how long until tokens would be available
// (read-only), accounting for partial refill since the last consume.
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	timeSinceLastRefill := now.Sub(tb.lastRefill)

	effectiveRemaining := tb.remaining
	if timeSinceLastRefill >= tb.refillInterval {
		effectiveRemaining = tb.capacity
	} else if timeSinceLastRefill > 0 {
		replenished := int(float64(tb.capacity) * (float64(timeSinceLastRefill) / float64(tb.refillInterval)))
		effectiveRemaining = min(tb.capacity, tb.remaining+replenished)
	}

	if tokens <= effectiveRemaining {
		return 0
	}

	needed := tokens - effectiveRemaining
	refillRate := float64(tb.capacity) / float64(tb.refillInterval)
	waitDuration := time.Duration(float64(needed) / refillRate)

	// Small buffer (10% extra time) so the tokens are actually there.
	return waitDuration + (waitDuration / 10)
}
