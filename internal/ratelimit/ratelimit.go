package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// RateLimiter paces sequential page loads against the target site.
type RateLimiter interface {
	Wait(ctx context.Context) error
	Done()
	SetDelay(min, max time.Duration)
}

// SimpleRateLimiter enforces a delay between consecutive actions, with
// optional jitter between min and max. The delay runs from the last Done, or
// from the last Wait when Done was not called. The first Wait returns
// immediately.
type SimpleRateLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	now        func() time.Time
}

func NewSimpleRateLimiter(minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &SimpleRateLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
	}
}

// NewFixed returns a limiter with a constant inter-action delay.
func NewFixed(delay time.Duration) *SimpleRateLimiter {
	return NewSimpleRateLimiter(delay, delay)
}

func (r *SimpleRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastAction.IsZero() {
		if wait := r.delay() - r.now().Sub(r.lastAction); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	r.lastAction = r.now()
	return nil
}

// Done marks the end of the current action.
func (r *SimpleRateLimiter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAction = r.now()
}

func (r *SimpleRateLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if max < min {
		max = min
	}
	r.minDelay = min
	r.maxDelay = max
}

// Delays returns the current bounds.
func (r *SimpleRateLimiter) Delays() (time.Duration, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay, r.maxDelay
}

func (r *SimpleRateLimiter) delay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + rand.N(r.maxDelay-r.minDelay)
}

// AdaptiveRateLimiter stretches the delay after repeated failures, which on
// this site usually means challenges are getting more frequent, and relaxes
// it back towards the base after a run of successes.
type AdaptiveRateLimiter struct {
	*SimpleRateLimiter
	baseMin       time.Duration
	baseMax       time.Duration
	ceiling       time.Duration
	errorCount    int
	successCount  int
	maxErrorCount int
	backoffFactor float64
}

func NewAdaptiveRateLimiter(minDelay, maxDelay time.Duration) *AdaptiveRateLimiter {
	limiter := NewSimpleRateLimiter(minDelay, maxDelay)
	return &AdaptiveRateLimiter{
		SimpleRateLimiter: limiter,
		baseMin:           limiter.minDelay,
		baseMax:           limiter.maxDelay,
		ceiling:           10 * limiter.maxDelay,
		maxErrorCount:     2,
		backoffFactor:     2,
	}
}

func (a *AdaptiveRateLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount >= 3 {
		a.minDelay = max(a.baseMin, time.Duration(float64(a.minDelay)/a.backoffFactor))
		a.maxDelay = max(a.baseMax, time.Duration(float64(a.maxDelay)/a.backoffFactor))
		a.successCount = 0
	}
}

func (a *AdaptiveRateLimiter) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.maxErrorCount {
		a.minDelay = min(a.ceiling, time.Duration(float64(a.minDelay)*a.backoffFactor))
		a.maxDelay = min(a.ceiling, time.Duration(float64(a.maxDelay)*a.backoffFactor))
		a.errorCount = 0
	}
}
