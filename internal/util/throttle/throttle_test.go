package throttle

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestThrottle_Allow(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		advances []time.Duration // clock advance before each Allow() call
		want     []bool
	}{
		{
			name:     "first call always allowed",
			interval: time.Minute,
			advances: []time.Duration{0},
			want:     []bool{true},
		},
		{
			name:     "second call within interval is blocked",
			interval: time.Minute,
			advances: []time.Duration{0, 30 * time.Second},
			want:     []bool{true, false},
		},
		{
			name:     "call exactly at interval is allowed",
			interval: time.Minute,
			advances: []time.Duration{0, time.Minute},
			want:     []bool{true, true},
		},
		{
			name:     "blocked calls do not reset the window",
			interval: time.Minute,
			advances: []time.Duration{0, 40 * time.Second, 20 * time.Second},
			want:     []bool{true, false, true},
		},
		{
			name:     "zero interval allows everything",
			interval: 0,
			advances: []time.Duration{0, 0, 0},
			want:     []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			th := NewWithClock(tt.interval, clock.Now)

			for i, d := range tt.advances {
				clock.Advance(d)
				allowed, wait := th.Allow("/storage/usb")
				if allowed != tt.want[i] {
					t.Errorf("call %d: Allow() = %v, want %v", i, allowed, tt.want[i])
				}
				if !allowed && (wait <= 0 || wait > tt.interval) {
					t.Errorf("call %d: wait = %v, want within (0, %v]", i, wait, tt.interval)
				}
			}
		})
	}
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	th := NewWithClock(time.Minute, clock.Now)

	if ok, _ := th.Allow("/a"); !ok {
		t.Fatal("first /a blocked")
	}
	if ok, _ := th.Allow("/b"); !ok {
		t.Error("/b blocked by /a")
	}
	if ok, _ := th.Allow("/a"); ok {
		t.Error("second /a allowed within interval")
	}
}

func TestThrottle_Forget(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	th := NewWithClock(time.Hour, clock.Now)

	th.Allow("/a")
	th.Forget("/a")
	if ok, _ := th.Allow("/a"); !ok {
		t.Error("Allow() after Forget() = false, want true")
	}
}

func TestThrottle_Concurrent(t *testing.T) {
	th := New(time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := th.Allow("k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("allowed = %d, want 1", allowed)
	}
}
