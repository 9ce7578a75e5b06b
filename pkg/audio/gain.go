package audio

import (
	"sync"
	"time"
)

// Gain is a scalar volume stage with at most one pending linear ramp.
//
// Automation is anchored to wall-clock [time.Time] values supplied by the
// caller (the engine's transport clock), not to an internal audio clock. This
// keeps fade behaviour fully deterministic under a virtual clock in tests.
//
// Gain is safe for concurrent use.
type Gain struct {
	mu     sync.Mutex
	value  float64 // value in effect when no ramp is pending
	ramp   *gainRamp
	target *Gain // upstream stage; nil for the context's master gain
}

// gainRamp is a linear transition from "from" at start to "to" at end.
type gainRamp struct {
	from, to   float64
	start, end time.Time
}

// NewGain returns an unconnected gain stage at the given initial value.
// Engine code normally obtains gains via [Context.NewGain] instead.
func NewGain(value float64) *Gain {
	return &Gain{value: value}
}

// Connect routes this gain's output through next. Passing nil disconnects.
func (g *Gain) Connect(next *Gain) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.target = next
}

// SetValue sets the gain immediately, cancelling any pending ramp.
func (g *Gain) SetValue(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
	g.ramp = nil
}

// RampTo schedules a linear ramp to target over [start, end]. The ramp's
// starting value is the gain's value at start. If end is not after start the
// gain jumps to target immediately.
func (g *Gain) RampTo(target float64, start, end time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !end.After(start) {
		g.value = target
		g.ramp = nil
		return
	}
	from := g.valueAtLocked(start)
	g.value = target // value once the ramp completes
	g.ramp = &gainRamp{from: from, to: target, start: start, end: end}
}

// ValueAt returns the gain in effect at time t, interpolating a pending ramp.
func (g *Gain) ValueAt(t time.Time) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.valueAtLocked(t)
}

func (g *Gain) valueAtLocked(t time.Time) float64 {
	r := g.ramp
	if r == nil {
		return g.value
	}
	if !t.After(r.start) {
		return r.from
	}
	if !t.Before(r.end) {
		return r.to
	}
	frac := float64(t.Sub(r.start)) / float64(r.end.Sub(r.start))
	return r.from + (r.to-r.from)*frac
}

// chainValueAt returns the product of this gain and all upstream gains at t.
func (g *Gain) chainValueAt(t time.Time) float64 {
	v := 1.0
	for node := g; node != nil; {
		node.mu.Lock()
		v *= node.valueAtLocked(t)
		next := node.target
		node.mu.Unlock()
		node = next
	}
	return v
}
