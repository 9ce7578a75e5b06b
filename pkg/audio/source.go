package audio

import (
	"sync"
	"time"
)

// BufferSource plays a decoded [Buffer], optionally looping. Like
// [Oscillator] it is single-use: once stopped it cannot be restarted.
type BufferSource struct {
	mu       sync.Mutex
	ctx      *Context
	buf      *Buffer
	loop     bool
	gain     *Gain
	playhead int // frame index into buf
	started  bool
	stopped  bool
	done     bool // non-looping source reached the end of its buffer
}

// Buffer returns the source's underlying buffer.
func (s *BufferSource) Buffer() *Buffer { return s.buf }

// Loop reports whether the source wraps at the end of its buffer.
func (s *BufferSource) Loop() bool { return s.loop }

// Duration returns the buffer's playback length. For looping sources this is
// the length of one pass.
func (s *BufferSource) Duration() time.Duration { return s.buf.Duration() }

// Connect routes the source's output through g.
func (s *BufferSource) Connect(g *Gain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = g
}

// Start begins playback from the start of the buffer. Starting an
// already-started source is a no-op; starting a stopped one returns
// [ErrNodeStopped].
func (s *BufferSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrNodeStopped
	}
	s.started = true
	return nil
}

// Stop permanently silences the source. Idempotent.
func (s *BufferSource) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Disconnect detaches the source from its gain stage and removes it from the
// context's render set.
func (s *BufferSource) Disconnect() {
	s.mu.Lock()
	s.gain = nil
	s.mu.Unlock()
	if s.ctx != nil {
		s.ctx.removeSource(s)
	}
}

// running reports whether the source currently produces sound.
func (s *BufferSource) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped && !s.done
}

// renderFrame produces one stereo frame and advances the playhead.
func (s *BufferSource) renderFrame(gainVal float64) (l, r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := s.buf.Frames()
	if frames == 0 || s.done {
		return 0, 0
	}
	bl, br := s.buf.sampleAt(s.playhead)
	s.playhead++
	if s.playhead >= frames {
		if s.loop {
			s.playhead = 0
		} else {
			s.done = true
		}
	}
	return bl * gainVal, br * gainVal
}
