package timerfake

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/rdp-proxy/token/refresh"
)

// Timer records a scheduled callback that only runs when Fire is called.
type Timer struct {
	Delay   time.Duration
	fn      func()
	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Fire runs the callback on the calling goroutine unless the timer was stopped
// or already fired.
func (t *Timer) Fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
}

// FireStale runs the callback even if the timer was stopped, the way a real
// timer can when Stop loses the race with expiry.
func (t *Timer) FireStale() {
	t.fn()
}

func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Clock replaces refresh.AfterFunc and refresh.NowTimeFunc for the duration of a test.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*Timer
}

func Install(t testing.TB) *Clock {
	t.Helper()
	c := &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}

	prevAfter, prevNow := refresh.AfterFunc, refresh.NowTimeFunc
	refresh.AfterFunc = c.afterFunc
	refresh.NowTimeFunc = c.Now
	t.Cleanup(func() {
		refresh.AfterFunc = prevAfter
		refresh.NowTimeFunc = prevNow
	})
	return c
}

func (c *Clock) afterFunc(d time.Duration, f func()) refresh.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &Timer{Delay: d, fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Timers returns every timer created so far, oldest first.
func (c *Clock) Timers() []*Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Timer(nil), c.timers...)
}

// Last returns the most recently created timer or nil.
func (c *Clock) Last() *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}
