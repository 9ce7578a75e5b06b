// Package openai provides an OpenAI speech-endpoint-backed TTS provider.
// It implements the tts.Provider interface.
//
// Audio is requested as raw PCM (24 kHz mono 16-bit), so no decode step is
// needed before playback. The speech endpoint has no server-side streaming
// protocol comparable to Deepgram's speak socket; SynthesizeStream chunks the
// HTTP response body as it arrives, which still lets preview playback begin
// before the full utterance is downloaded.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	// pcmSampleRate is the fixed output rate of the speech endpoint's PCM format.
	pcmSampleRate = 24000

	// MaxTextLength mirrors the cap applied to narration prompts. The endpoint
	// itself accepts longer inputs; the cap keeps behaviour uniform across
	// providers.
	MaxTextLength = 500

	// streamChunkBytes is the read granularity of the streaming path.
	streamChunkBytes = 8192
)

// voiceNames is the fixed voice catalogue of the speech endpoint.
var voiceNames = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

// Option is a functional option for configuring the OpenAI Provider.
type Option func(*Provider)

// WithModel sets the speech model (default "gpt-4o-mini-tts").
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithSpeed sets the narration speed multiplier (0.25–4.0).
func WithSpeed(speed float64) Option {
	return func(p *Provider) { p.speed = speed }
}

// WithRequestOptions appends extra client options (base URL override for
// tests, custom HTTP client, ...).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(p *Provider) { p.clientOpts = append(p.clientOpts, opts...) }
}

// Provider implements tts.Provider backed by the OpenAI speech endpoint.
type Provider struct {
	client     openai.Client
	clientOpts []option.RequestOption
	model      string
	speed      float64
}

// New creates an OpenAI Provider. An empty apiKey is a configuration error.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", tts.ErrNotConfigured)
	}
	p := &Provider{
		clientOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
		model:      "gpt-4o-mini-tts",
		speed:      0.8,
	}
	for _, o := range opts {
		o(p)
	}
	p.client = openai.NewClient(p.clientOpts...)
	return p, nil
}

// Format reports the PCM format of synthesized audio.
func (p *Provider) Format() audio.Format {
	return audio.Format{SampleRate: pcmSampleRate, Channels: 1}
}

// Synthesize performs one speech call and returns raw PCM16 mono bytes.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	resp, err := p.speak(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read audio: %w", err)
	}
	return pcm, nil
}

// SynthesizeStream performs one speech call and emits the response body in
// chunks as it downloads. The returned channel is closed when the body ends
// or ctx is cancelled.
func (p *Provider) SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error) {
	resp, err := p.speak(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}

	audioCh := make(chan []byte, 8)
	go func() {
		defer close(audioCh)
		defer resp.Body.Close()
		for {
			chunk := make([]byte, streamChunkBytes)
			n, err := resp.Body.Read(chunk)
			if n > 0 {
				select {
				case audioCh <- chunk[:n]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return audioCh, nil
}

// ListVoices returns the speech endpoint's fixed voice catalogue.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	out := make([]tts.Voice, 0, len(voiceNames))
	for _, name := range voiceNames {
		out = append(out, tts.Voice{ID: name, Name: name, Provider: "openai"})
	}
	return out, nil
}

// speak validates input and issues the speech request.
func (p *Provider) speak(ctx context.Context, text, voiceID string) (*http.Response, error) {
	if !isKnownVoice(voiceID) {
		return nil, fmt.Errorf("openai: %w: %q", tts.ErrUnknownVoice, voiceID)
	}
	if len(text) == 0 {
		return nil, fmt.Errorf("openai: text must not be empty")
	}
	if len(text) > MaxTextLength {
		return nil, fmt.Errorf("openai: %w: %d > %d chars", tts.ErrTextTooLong, len(text), MaxTextLength)
	}

	r, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(p.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voiceID),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
		Speed:          openai.Float(p.speed),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: speech: %w", err)
	}
	return r, nil
}

func isKnownVoice(voiceID string) bool {
	for _, v := range voiceNames {
		if v == voiceID {
			return true
		}
	}
	return false
}
