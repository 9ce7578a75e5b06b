// Package tts defines the Provider interface for text-to-speech backends.
//
// A TTS provider wraps a hosted speech-synthesis service (e.g. Deepgram Aura
// or the OpenAI speech endpoint) and presents a uniform batch interface: one
// call per narration prompt, returning raw PCM. Meditation prompts are short
// (a sentence or two) and scheduled seconds apart, so batch synthesis — with
// persistent caching in front of it — is the latency-relevant design, not
// token-level streaming. A streaming variant exists for the interactive
// voice-preview path.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/attunelabs/attune/pkg/audio"
)

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize produces spoken audio for text using the given provider
	// voice ID. The returned bytes are raw little-endian PCM16 in the format
	// reported by [Provider.Format].
	//
	// Implementations validate the voice ID against their catalogue and
	// enforce their text-length limits; see [ErrUnknownVoice] and
	// [ErrTextTooLong]. A missing credential is a configuration error
	// ([ErrNotConfigured]) and fails fast without a network call.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)

	// SynthesizeStream produces the same audio incrementally, emitting PCM
	// chunks as they arrive from the service. The returned channel is closed
	// when synthesis completes or ctx is cancelled; callers must drain it.
	// Used by interactive voice preview where time-to-first-sound matters.
	SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error)

	// ListVoices returns the provider's voice catalogue.
	ListVoices(ctx context.Context) ([]Voice, error)

	// Format reports the sample rate and channel count of synthesized PCM.
	Format() audio.Format
}
