// Package audio provides the playback engine's audio graph: decoded PCM
// buffers, gain nodes with linear automation, sine oscillators, looping buffer
// sources, and a mixing [Context] that renders the graph to a [Sink].
//
// The graph mirrors the node/connect model of browser audio APIs because the
// engine's scheduling semantics are defined in those terms: sources connect to
// gain nodes, gain nodes chain to the context's master gain, and gain ramps
// are anchored to wall-clock timestamps so that a virtual clock can drive them
// deterministically in tests.
//
// Scheduling state (node start/stop, gain automation) is maintained
// independently of rendering: a [Context] that never renders still answers
// [Gain.ValueAt] and tracks source lifecycles, which is what the engine's
// frame loop and its tests rely on.
package audio

import "time"

// Format describes the sample rate and channel count of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer holds decoded PCM audio: interleaved little-endian int16 samples.
// Buffers are immutable after creation and safe for concurrent reads; sources
// playing the same buffer share it.
type Buffer struct {
	Data       []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// sampleAt returns the left and right samples of frame i, duplicating mono.
func (b *Buffer) sampleAt(i int) (l, r float64) {
	switch b.Channels {
	case 1:
		s := float64(b.Data[i]) / 32768
		return s, s
	case 2:
		return float64(b.Data[i*2]) / 32768, float64(b.Data[i*2+1]) / 32768
	default:
		// Higher channel counts: take the first two.
		s0 := float64(b.Data[i*b.Channels]) / 32768
		s1 := float64(b.Data[i*b.Channels+1]) / 32768
		return s0, s1
	}
}

// BytesToSamples converts little-endian int16 PCM bytes to samples.
// A trailing odd byte is dropped.
func BytesToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}
	return out
}

// SamplesToBytes converts int16 samples to little-endian PCM bytes.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
