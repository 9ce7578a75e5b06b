package audio

import (
	"errors"
	"math"
	"sync"
)

// ErrNodeStopped is returned when starting a source node that has already been
// stopped. Source nodes are single-use: construct a fresh node to play again.
var ErrNodeStopped = errors.New("audio: node already stopped, create a new one")

// Oscillator generates a continuous pure sine tone at a fixed frequency with a
// constant stereo pan. Like its browser counterpart it is single-use: once
// stopped it cannot be restarted.
//
// Pan is -1 (hard left) to +1 (hard right); intermediate values use
// equal-power panning.
type Oscillator struct {
	mu        sync.Mutex
	ctx       *Context
	frequency float64
	pan       float64
	gain      *Gain // output stage, set via Connect
	phase     float64
	started   bool
	stopped   bool
}

// Frequency returns the oscillator's tone frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// Pan returns the oscillator's constant stereo pan.
func (o *Oscillator) Pan() float64 { return o.pan }

// Connect routes the oscillator's output through g.
func (o *Oscillator) Connect(g *Gain) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gain = g
}

// Start begins tone generation. Starting an already-started oscillator is a
// no-op; starting a stopped one returns [ErrNodeStopped].
func (o *Oscillator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrNodeStopped
	}
	o.started = true
	return nil
}

// Stop permanently silences the oscillator. Idempotent.
func (o *Oscillator) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
}

// Disconnect detaches the oscillator from its gain stage and removes it from
// the context's render set.
func (o *Oscillator) Disconnect() {
	o.mu.Lock()
	o.gain = nil
	o.mu.Unlock()
	if o.ctx != nil {
		o.ctx.removeOscillator(o)
	}
}

// running reports whether the oscillator currently produces sound.
func (o *Oscillator) running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started && !o.stopped
}

// renderFrame produces one stereo frame and advances the oscillator's phase.
// gainVal is the pre-computed chain gain for this render block.
func (o *Oscillator) renderFrame(sampleRate int, gainVal float64) (l, r float64) {
	o.mu.Lock()
	s := math.Sin(o.phase) * gainVal
	o.phase += 2 * math.Pi * o.frequency / float64(sampleRate)
	if o.phase > 2*math.Pi {
		o.phase -= 2 * math.Pi
	}
	pan := o.pan
	o.mu.Unlock()

	// Equal-power pan law; hard pan degenerates to a single channel.
	angle := (pan + 1) * math.Pi / 4
	return s * math.Cos(angle), s * math.Sin(angle)
}
