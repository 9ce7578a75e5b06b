package resilience

import (
	"context"
	"log/slog"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with automatic failover across multiple
// synthesis backends. Each backend has its own circuit breaker.
//
// All grouped backends must emit the same PCM format, so that audio produced
// by a fallback is interchangeable with the primary's. AddFallback rejects
// mismatched backends.
type TTSFallback struct {
	group  *FallbackGroup[tts.Provider]
	format audio.Format
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group:  NewFallbackGroup(primary, primaryName, cfg),
		format: primary.Format(),
	}
}

// AddFallback registers an additional synthesis provider as a fallback. A
// provider whose PCM format differs from the primary's is skipped.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	if provider.Format() != f.format {
		slog.Warn("skipping fallback provider with mismatched audio format",
			"provider", name, "format", provider.Format(), "want", f.format)
		return
	}
	f.group.AddFallback(name, provider)
}

// Format reports the PCM format shared by every backend in the group.
func (f *TTSFallback) Format() audio.Format {
	return f.format
}

// Synthesize renders text with the first healthy provider.
func (f *TTSFallback) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text, voiceID)
	})
}

// SynthesizeStream opens a streaming synthesis with the first healthy
// provider. Only stream setup is covered by failover; mid-stream errors are
// the caller's responsibility.
func (f *TTSFallback) SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) (<-chan []byte, error) {
		return p.SynthesizeStream(ctx, text, voiceID)
	})
}

// ListVoices returns available voices from the first healthy provider.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]tts.Voice, error) {
		return p.ListVoices(ctx)
	})
}
