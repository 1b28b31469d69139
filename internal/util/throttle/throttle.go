package throttle

import (
	"sync"
	"time"
)

// Throttle lets one action per key through per interval and is safe for
// concurrent use. An interval of zero or less lets everything through.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	last     map[string]time.Time
}

// New creates a Throttle using the wall clock.
func New(interval time.Duration) *Throttle {
	return NewWithClock(interval, time.Now)
}

// NewWithClock creates a Throttle reading time from now.
func NewWithClock(interval time.Duration, now func() time.Time) *Throttle {
	return &Throttle{
		interval: interval,
		now:      now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether an action for key may run now, recording it if so.
// When it may not, the remaining wait is returned.
func (t *Throttle) Allow(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	last, seen := t.last[key]
	if !seen || t.interval <= 0 {
		t.last[key] = now
		return true, 0
	}

	elapsed := now.Sub(last)
	if elapsed >= t.interval {
		t.last[key] = now
		return true, 0
	}
	return false, t.interval - elapsed
}

// Forget clears the state of key so its next action is allowed.
func (t *Throttle) Forget(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}

// Interval returns the configured interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
