package refresh

import (
	"sync"
	"time"
)

// SafetyFactor is the share of the declared token lifetime to wait before renewing.
const SafetyFactor = 0.90

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a one-shot timer. It can be overridden in tests.
var AfterFunc = func(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Delay returns when a token with the given lifetime should be renewed.
func Delay(expiresIn time.Duration) time.Duration {
	return time.Duration(float64(expiresIn) * SafetyFactor)
}

// Scheduler owns at most one armed one-shot timer. Every Arm or Cancel bumps a
// generation counter and a timer only runs its callback if its generation is still
// current, so a timer that lost a race with Stop never acts.
// The zero value is ready to use.
type Scheduler struct {
	mu         sync.Mutex
	timer      Timer
	generation uint64
	deadline   time.Time
}

// Arm replaces any armed timer with one that calls fn once after d.
func (s *Scheduler) Arm(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.generation++
	gen := s.generation
	s.deadline = NowTimeFunc().Add(d)
	s.timer = AfterFunc(d, func() {
		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.deadline = time.Time{}
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops the armed timer, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.generation++
}

// Deadline reports when the armed timer fires.
func (s *Scheduler) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.timer != nil
}

func (s *Scheduler) Armed() bool {
	_, ok := s.Deadline()
	return ok
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}
