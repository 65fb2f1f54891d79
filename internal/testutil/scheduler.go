package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/tulen-chik/reshalka/internal/clock"
)

// ManualScheduler is a clock.Scheduler whose time only moves when the test
// calls Advance.
//
// Timers fire synchronously inside Advance, in deadline order (ties in
// scheduling order). Timers scheduled by a firing callback fire in the same
// Advance if they are already due.
//
// Thread-safety: all methods are safe for concurrent use; callbacks run
// without the internal lock held.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	id      int
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements clock.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) clock.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &manualTimer{s: s, id: s.nextID, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves time forward by d and fires every due timer.
// Returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	s.mu.Unlock()

	fired := 0
	for {
		t := s.popDue()
		if t == nil {
			return fired
		}
		t.f()
		fired++
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Now returns the scheduler's current time offset.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) popDue() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].id < s.timers[j].id
	})
	if len(s.timers) == 0 || s.timers[0].at > s.now {
		return nil
	}
	t := s.timers[0]
	s.timers = s.timers[1:]
	t.fired = true
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range t.s.timers {
		if other == t {
			t.s.timers = append(t.s.timers[:i], t.s.timers[i+1:]...)
			break
		}
	}
	return true
}

// ImmediateScheduler runs every callback synchronously inside AfterFunc,
// ignoring the delay.
type ImmediateScheduler struct{}

// AfterFunc implements clock.Scheduler.
func (ImmediateScheduler) AfterFunc(_ time.Duration, f func()) clock.Timer {
	f()
	return firedTimer{}
}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }
