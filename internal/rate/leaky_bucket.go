// Package rate paces repeated request dispatch.
package rate

import (
	"context"
	"sync"
	"time"
)

// LeakyBucket releases one dispatch slot every 1/rate seconds.
//
// Next reports when the next slot opens. If the caller has fallen behind,
// the returned time is in the past and the slot can be used immediately;
// missed slots are not accumulated beyond a single one, so there is no burst
// after a stall.
//
// LeakyBucket is safe for concurrent use from multiple goroutines.
type LeakyBucket struct {
	interval time.Duration
	next     time.Time
	mu       sync.Mutex
}

// NewLeakyBucket creates a bucket that releases rate slots per second.
// A rate of zero or less defaults to one per second.
func NewLeakyBucket(rate float64) *LeakyBucket {
	if rate <= 0 {
		rate = 1.0
	}
	return &LeakyBucket{
		interval: time.Duration(float64(time.Second) / rate),
	}
}

// Interval returns the spacing between slots.
func (lb *LeakyBucket) Interval() time.Duration {
	return lb.interval
}

// Next reserves the next slot and returns when it opens.
func (lb *LeakyBucket) Next() time.Time {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := time.Now()
	if lb.next.Before(now) {
		lb.next = now
	}
	slot := lb.next
	lb.next = lb.next.Add(lb.interval)
	return slot
}

// Wait blocks until the next slot opens or ctx is done.
func (lb *LeakyBucket) Wait(ctx context.Context) error {
	delay := time.Until(lb.Next())
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
