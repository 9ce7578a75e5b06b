package engine

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time for the playback engine. The engine never reads
// time.Now directly: transport position, fade anchoring, and the frame
// scheduler all go through a Clock, so tests and offline rendering can drive
// playback faster than real time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run after d and returns a handle that can
	// cancel it.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the cancellation happened
	// before the callback fired.
	Stop() bool
}

// systemClock implements Clock on the runtime's real timers.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the real-time Clock used by default.
func SystemClock() Clock { return systemClock{} }

// StepClock is a virtual Clock advanced manually by tests and by the offline
// renderer. Callbacks scheduled with AfterFunc fire synchronously inside
// [StepClock.Advance], in due order, on the calling goroutine.
type StepClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*stepTimer
	nextID int
}

// NewStepClock returns a StepClock starting at the given instant.
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start}
}

type stepTimer struct {
	clock   *StepClock
	id      int
	due     time.Time
	f       func()
	stopped bool
}

// Stop cancels the timer if it has not fired.
func (t *stepTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, pending := range t.clock.timers {
		if pending == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Now returns the current virtual time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f at now+d on the virtual timeline.
func (c *StepClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &stepTimer{clock: c, id: c.nextID, due: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing every timer that becomes
// due, in due order (FIFO among equals). Time steps to each timer's deadline
// before its callback runs, so a callback observing Now sees its own due time.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		next := c.nextDueLocked(target)
		if next == nil {
			break
		}
		// Remove before firing so the callback can reschedule.
		for i, pending := range c.timers {
			if pending == next {
				c.timers = append(c.timers[:i], c.timers[i+1:]...)
				break
			}
		}
		if next.due.After(c.now) {
			c.now = next.due
		}
		next.stopped = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// nextDueLocked returns the earliest timer due at or before target, preferring
// the one scheduled first among equals.
func (c *StepClock) nextDueLocked(target time.Time) *stepTimer {
	var candidates []*stepTimer
	for _, t := range c.timers {
		if !t.due.After(target) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].due.Equal(candidates[j].due) {
			return candidates[i].id < candidates[j].id
		}
		return candidates[i].due.Before(candidates[j].due)
	})
	return candidates[0]
}
