// Package ratelimit implements the per-model token bucket (C6): capacity 1,
// fractional refill rate, cancellable acquire.
//
// Built on golang.org/x/time/rate rather than a hand-rolled bucket:
// x/time/rate.Limiter.Wait(ctx) already gives first-come-first-served
// queuing and a context-cancellable suspension point, exactly what the
// acquire(cancel) contract needs, so there is no reason to reimplement
// that ordering by hand.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per model name. A model with no
// configured rate gets an unlimited bucket.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New returns an empty Limiter; buckets are created lazily on first use of
// a model name via Configure or Acquire.
func New() *Limiter {
	return &Limiter{buckets: make(map[string]*rate.Limiter)}
}

// Configure installs the bucket for model, replacing any prior bucket for
// that name. perSecond == nil means unlimited.
func (l *Limiter) Configure(model string, perSecond *float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[model] = newBucket(perSecond)
}

func newBucket(perSecond *float64) *rate.Limiter {
	if perSecond == nil {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(*perSecond), 1)
}

// Acquire blocks until a token is available for model, or ctx is
// cancelled. A model never Configure'd gets an implicit unlimited bucket
// created on first use.
func (l *Limiter) Acquire(ctx context.Context, model string) error {
	l.mu.Lock()
	b, ok := l.buckets[model]
	if !ok {
		b = newBucket(nil)
		l.buckets[model] = b
	}
	l.mu.Unlock()

	return b.Wait(ctx)
}
