package sources

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a strict minimum interval between request starts. It is
// a fixed-interval spacer, not a token bucket: no two requests through the
// same throttle start closer together than the interval, and there is no
// burst allowance beyond that spacing.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewThrottle creates a throttle with the given minimum inter-request
// interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the caller may start its request, or until ctx is done.
// Concurrent callers are serialized: each reserves the next slot under the
// lock, so the spacing guarantee holds across goroutines.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	start := t.next
	if start.Before(now) {
		start = now
	}
	t.next = start.Add(t.interval)
	t.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interval returns the configured minimum spacing.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
