package audio

import (
	"fmt"
	"os"
	"sync"
)

// Sink receives rendered interleaved stereo int16 frames from a [Context].
//
// Implementations must tolerate WriteFrame being called from the render loop
// at frame-tick cadence; a slow sink stalls playback.
type Sink interface {
	// Start prepares the sink for writing. Called by [Context.Resume];
	// idempotent. A sink that cannot start (missing device, unwritable file)
	// returns a descriptive error, which the engine surfaces to the user.
	Start() error

	// WriteFrame consumes one rendered block of interleaved stereo samples.
	WriteFrame(samples []int16) error

	// Close flushes and releases the sink. Idempotent.
	Close() error
}

// NullSink discards all frames. Used by tests and by headless scheduling runs
// where only events matter.
type NullSink struct{}

func (NullSink) Start() error { return nil }

func (NullSink) WriteFrame([]int16) error { return nil }

func (NullSink) Close() error { return nil }

// WAVSink writes rendered frames to a RIFF/PCM16 file, patching the header
// lengths on Close. Used by offline session rendering.
type WAVSink struct {
	mu         sync.Mutex
	path       string
	sampleRate int
	f          *os.File
	dataBytes  int
	closed     bool
}

// Compile-time interface assertions.
var (
	_ Sink = NullSink{}
	_ Sink = (*WAVSink)(nil)
)

// NewWAVSink creates a sink that writes a stereo PCM16 WAV file at path.
// The file is created on Start.
func NewWAVSink(path string, sampleRate int) *WAVSink {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &WAVSink{path: path, sampleRate: sampleRate}
}

// Start creates the output file and writes a placeholder header.
func (w *WAVSink) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f != nil || w.closed {
		return nil
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("audio: create wav %q: %w", w.path, err)
	}
	// Placeholder header; lengths are patched on Close.
	if _, err := f.Write(encodeWAVHeader(0, w.sampleRate, 2)); err != nil {
		f.Close()
		return fmt.Errorf("audio: write wav header: %w", err)
	}
	w.f = f
	return nil
}

// WriteFrame appends samples to the data chunk.
func (w *WAVSink) WriteFrame(samples []int16) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return fmt.Errorf("audio: wav sink %q not started", w.path)
	}
	n, err := w.f.Write(SamplesToBytes(samples))
	w.dataBytes += n
	if err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

// Close patches the RIFF chunk lengths and closes the file.
func (w *WAVSink) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.f == nil {
		w.closed = true
		return nil
	}
	w.closed = true
	header := encodeWAVHeader(w.dataBytes, w.sampleRate, 2)
	if _, err := w.f.WriteAt(header, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: patch wav header: %w", err)
	}
	return w.f.Close()
}
