// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled PCM bytes to consumers and to verify that
// the correct voice and text are passed to the synthesis backend.
//
// Example:
//
//	p := &mock.Provider{
//	    SynthesizeResult: []byte("pcm"),
//	    ListVoicesResult: []tts.Voice{{ID: "v1", Name: "Thalia"}},
//	}
//	pcm, _ := p.Synthesize(ctx, "breathe in", "v1")
package mock

import (
	"context"
	"sync"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize or
// SynthesizeStream.
type SynthesizeCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Text is the text passed to the call.
	Text string
	// VoiceID is the voice identifier passed to the call.
	VoiceID string
	// Stream reports whether the call was SynthesizeStream.
	Stream bool
}

// ListVoicesCall records a single invocation of ListVoices.
type ListVoicesCall struct {
	// Ctx is the context passed to ListVoices.
	Ctx context.Context
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SynthesizeResult is the PCM byte slice returned by Synthesize and, split
	// into StreamChunkSize pieces, emitted by SynthesizeStream.
	SynthesizeResult []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize and
	// SynthesizeStream.
	SynthesizeErr error

	// SynthesizeDelay, if set, makes Synthesize block until the delay elapses
	// or the context is cancelled. Useful for exercising stale-result handling.
	SynthesizeDelay <-chan struct{}

	// StreamChunkSize is the chunk size used by SynthesizeStream. Zero means
	// the whole result in one chunk.
	StreamChunkSize int

	// FormatResult is returned by Format. A zero value defaults to
	// 24 kHz mono.
	FormatResult audio.Format

	// ListVoicesResult is returned by ListVoices.
	ListVoicesResult []tts.Voice

	// ListVoicesErr, if non-nil, is returned as the error from ListVoices.
	ListVoicesErr error

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize and SynthesizeStream
	// in order.
	SynthesizeCalls []SynthesizeCall

	// ListVoicesCalls records every call to ListVoices in order.
	ListVoicesCalls []ListVoicesCall
}

// Synthesize records the call and returns SynthesizeResult, SynthesizeErr.
// If SynthesizeDelay is set, it blocks first.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, VoiceID: voiceID})
	delay := p.SynthesizeDelay
	result := p.SynthesizeResult
	err := p.SynthesizeErr
	p.mu.Unlock()

	if delay != nil {
		select {
		case <-delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(result))
	copy(out, result)
	return out, nil
}

// SynthesizeStream records the call and, if SynthesizeErr is nil, returns a
// channel that emits SynthesizeResult in StreamChunkSize pieces then closes.
func (p *Provider) SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, VoiceID: voiceID, Stream: true})
	result := make([]byte, len(p.SynthesizeResult))
	copy(result, p.SynthesizeResult)
	chunkSize := p.StreamChunkSize
	err := p.SynthesizeErr
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = len(result)
	}

	ch := make(chan []byte, 8)
	go func() {
		defer close(ch)
		for len(result) > 0 {
			n := min(chunkSize, len(result))
			select {
			case <-ctx.Done():
				return
			case ch <- result[:n]:
			}
			result = result[n:]
		}
	}()
	return ch, nil
}

// ListVoices records the call and returns ListVoicesResult, ListVoicesErr.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListVoicesCalls = append(p.ListVoicesCalls, ListVoicesCall{Ctx: ctx})
	return p.ListVoicesResult, p.ListVoicesErr
}

// Format returns FormatResult, defaulting to 24 kHz mono.
func (p *Provider) Format() audio.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FormatResult == (audio.Format{}) {
		return audio.Format{SampleRate: 24000, Channels: 1}
	}
	return p.FormatResult
}

// Calls returns a copy of the recorded Synthesize calls. Safe to poll while
// synthesis goroutines are in flight.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(out, p.SynthesizeCalls)
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
	p.ListVoicesCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
