package audio

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// DefaultSampleRate is the graph's default output rate in Hz.
const DefaultSampleRate = 48000

// ErrContextClosed is returned by operations on a closed [Context].
var ErrContextClosed = errors.New("audio: context is closed")

// ContextState describes the lifecycle of a [Context].
type ContextState int

const (
	// StateSuspended is the initial state: the graph schedules but the sink
	// has not been started. Mirrors browser autoplay restrictions — callers
	// must Resume before sound reaches the device.
	StateSuspended ContextState = iota

	// StateRunning means the sink is started and rendered frames are audible.
	StateRunning

	// StateClosed means the context has been torn down and cannot be reused.
	StateClosed
)

// String returns the human-readable name of the state.
func (s ContextState) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context owns the audio graph: a set of source nodes, their gain chains, the
// master gain, and the output [Sink]. One Context exists per engine.
//
// All methods are safe for concurrent use.
type Context struct {
	mu         sync.Mutex
	sampleRate int
	sink       Sink
	master     *Gain
	state      ContextState
	oscs       []*Oscillator
	srcs       []*BufferSource
}

// NewContext constructs a suspended Context over sink. A nil sink is invalid.
func NewContext(sink Sink, sampleRate int) (*Context, error) {
	if sink == nil {
		return nil, errors.New("audio: sink must not be nil")
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Context{
		sampleRate: sampleRate,
		sink:       sink,
		master:     NewGain(1),
		state:      StateSuspended,
	}, nil
}

// SampleRate returns the graph's output sample rate in Hz.
func (c *Context) SampleRate() int { return c.sampleRate }

// Master returns the context's master gain. Source gain chains terminate here.
func (c *Context) Master() *Gain { return c.master }

// State returns the context's lifecycle state.
func (c *Context) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the sink and moves the context to [StateRunning]. Idempotent:
// resuming a running context is a no-op. Resuming a closed context is an error.
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRunning:
		return nil
	case StateClosed:
		return ErrContextClosed
	}
	if err := c.sink.Start(); err != nil {
		return fmt.Errorf("audio: start sink: %w", err)
	}
	c.state = StateRunning
	return nil
}

// Close stops every node, closes the sink, and moves the context to
// [StateClosed]. Idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	oscs := slices.Clone(c.oscs)
	srcs := slices.Clone(c.srcs)
	c.oscs = nil
	c.srcs = nil
	sink := c.sink
	c.mu.Unlock()

	for _, o := range oscs {
		o.Stop()
	}
	for _, s := range srcs {
		s.Stop()
	}
	return sink.Close()
}

// NewOscillator constructs a sine oscillator at frequency Hz with the given
// constant pan and registers it with the context's render set.
func (c *Context) NewOscillator(frequency, pan float64) *Oscillator {
	o := &Oscillator{ctx: c, frequency: frequency, pan: pan}
	c.mu.Lock()
	c.oscs = append(c.oscs, o)
	c.mu.Unlock()
	return o
}

// NewBufferSource constructs a source playing buf. The buffer's sample rate
// should match the context's; callers are expected to resample on decode.
func (c *Context) NewBufferSource(buf *Buffer, loop bool) *BufferSource {
	s := &BufferSource{ctx: c, buf: buf, loop: loop}
	c.mu.Lock()
	c.srcs = append(c.srcs, s)
	c.mu.Unlock()
	return s
}

// NewGain constructs a gain stage connected to the master gain.
func (c *Context) NewGain(value float64) *Gain {
	g := NewGain(value)
	g.Connect(c.master)
	return g
}

func (c *Context) removeOscillator(o *Oscillator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.oscs = slices.DeleteFunc(c.oscs, func(x *Oscillator) bool { return x == o })
}

func (c *Context) removeSource(s *BufferSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.srcs = slices.DeleteFunc(c.srcs, func(x *BufferSource) bool { return x == s })
}

// Render mixes every running source into dst (interleaved stereo int16) for
// the render block starting at now, and advances source playheads. dst must
// hold an even number of samples. A suspended context renders silence without
// advancing any source.
//
// Gain chains are evaluated once per render block; at typical frame intervals
// (~16 ms) this is well within the fade tolerance the engine guarantees.
func (c *Context) Render(dst []int16, now time.Time) {
	for i := range dst {
		dst[i] = 0
	}

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	oscs := slices.Clone(c.oscs)
	srcs := slices.Clone(c.srcs)
	rate := c.sampleRate
	c.mu.Unlock()

	frames := len(dst) / 2
	mix := make([]float64, frames*2)

	for _, o := range oscs {
		if !o.running() {
			continue
		}
		o.mu.Lock()
		g := o.gain
		o.mu.Unlock()
		gv := 1.0
		if g != nil {
			gv = g.chainValueAt(now)
		}
		for f := 0; f < frames; f++ {
			l, r := o.renderFrame(rate, gv)
			mix[f*2] += l
			mix[f*2+1] += r
		}
	}

	for _, s := range srcs {
		if !s.running() {
			continue
		}
		s.mu.Lock()
		g := s.gain
		s.mu.Unlock()
		gv := 1.0
		if g != nil {
			gv = g.chainValueAt(now)
		}
		for f := 0; f < frames; f++ {
			l, r := s.renderFrame(gv)
			mix[f*2] += l
			mix[f*2+1] += r
		}
	}

	for i, v := range mix {
		dst[i] = clampSample(v)
	}
}

// WriteFrame renders one block starting at now and writes it to the sink.
func (c *Context) WriteFrame(dst []int16, now time.Time) error {
	c.Render(dst, now)
	return c.sink.WriteFrame(dst)
}

// clampSample converts a float sample in [-1, 1] to int16, clipping overflow.
func clampSample(v float64) int16 {
	if v > 1 {
		return 32767
	}
	if v < -1 {
		return -32768
	}
	return int16(v * 32767)
}
