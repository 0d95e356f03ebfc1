// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between calls. It is safe for
// concurrent use; callers block until their slot arrives or their context is
// cancelled.
type Limiter struct {
	mu   sync.Mutex
	min  time.Duration
	last time.Time
}

// NewLimiter returns a Limiter with the given minimum inter-call interval.
// A non-positive interval disables waiting.
func NewLimiter(min time.Duration) *Limiter {
	return &Limiter{min: min}
}

// Wait blocks until at least the minimum interval has passed since the
// previous Wait returned, or until ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.min <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	next := l.last.Add(l.min)
	if next.Before(now) {
		next = now
	}
	l.last = next
	l.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
