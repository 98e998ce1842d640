package genclient

import (
	"context"
	"sync"
	"time"
)

// maxSleep bounds a single wait so cancellation is noticed promptly.
const maxSleep = 200 * time.Millisecond

// Limiter admits at most permits calls per rolling window. Callers over the
// limit are suspended until the oldest permit ages out, never rejected.
// All state lives behind one mutex; a permits value <= 0 disables limiting.
type Limiter struct {
	mu      sync.Mutex
	permits int
	window  time.Duration
	now     func() time.Time
	issued  []time.Time // oldest first
}

// NewLimiter creates a limiter. A nil clock uses time.Now.
func NewLimiter(permits int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{permits: permits, window: window, now: now}
}

// reserve takes a permit if one is free. Otherwise it reports how long until
// the oldest permit in the window expires.
func (l *Limiter) reserve() (bool, time.Duration) {
	if l.permits <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	drop := 0
	for drop < len(l.issued) && !l.issued[drop].After(cutoff) {
		drop++
	}
	l.issued = l.issued[drop:]

	if len(l.issued) < l.permits {
		l.issued = append(l.issued, now)
		return true, 0
	}
	return false, l.issued[0].Add(l.window).Sub(now)
}

// Try takes a permit without waiting.
func (l *Limiter) Try() bool {
	ok, _ := l.reserve()
	return ok
}

// Wait blocks until a permit is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, wait := l.reserve()
		if ok {
			return nil
		}
		wait = min(max(wait, time.Millisecond), maxSleep)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// InWindow returns the number of permits issued in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	n := 0
	for _, t := range l.issued {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
