// Package deepgram provides a Deepgram Aura-backed TTS provider using the
// Deepgram speak REST API for batch synthesis and the speak WebSocket API for
// streaming. It implements the tts.Provider interface.
//
// Synthesis requests PCM output directly (encoding=linear16, container=none)
// so no decode step is needed before the audio graph can play the result.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultBaseURL    = "https://api.deepgram.com"
	defaultWSBaseURL  = "wss://api.deepgram.com"
	defaultSampleRate = 48000
	defaultTimeout    = 30 * time.Second

	// MaxTextLength is the per-request text cap enforced by the speak API.
	MaxTextLength = 500

	// wsChunkBuf is the buffer depth of the streaming audio channel.
	wsChunkBuf = 64
)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithBaseURL overrides the REST API base URL. Used by tests to point the
// provider at a local httptest server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithWSBaseURL overrides the WebSocket API base URL.
func WithWSBaseURL(u string) Option {
	return func(p *Provider) { p.wsBaseURL = u }
}

// WithSampleRate sets the requested output sample rate (default 48000 Hz).
func WithSampleRate(rate int) Option {
	return func(p *Provider) { p.sampleRate = rate }
}

// WithSpeed sets the narration speed multiplier (0.5–2.0; the meditation
// default is a slightly slowed 0.8).
func WithSpeed(speed float64) Option {
	return func(p *Provider) { p.speed = speed }
}

// WithHTTPClient replaces the HTTP client used for REST calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements tts.Provider backed by Deepgram Aura.
type Provider struct {
	apiKey     string
	baseURL    string
	wsBaseURL  string
	sampleRate int
	speed      float64
	httpClient *http.Client
}

// New creates a Deepgram Provider. An empty apiKey is a configuration error:
// it is reported immediately so that startup fails fast rather than the first
// prompt of a session.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram: %w", tts.ErrNotConfigured)
	}
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		wsBaseURL:  defaultWSBaseURL,
		sampleRate: defaultSampleRate,
		speed:      0.8,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Format reports the PCM format of synthesized audio: mono linear16 at the
// configured sample rate.
func (p *Provider) Format() audio.Format {
	return audio.Format{SampleRate: p.sampleRate, Channels: 1}
}

// speakRequest is the JSON body of a speak call.
type speakRequest struct {
	Text string `json:"text"`
}

// Synthesize performs one batch speak call and returns raw PCM16 mono bytes.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if err := validateInput(text, voiceID); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(speakRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.speakURL(voiceID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: speak: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("deepgram: speak: unexpected status %d: %s", resp.StatusCode, msg)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram: read audio: %w", err)
	}
	return pcm, nil
}

// wsSpeakMessage is a control message on the streaming speak socket.
type wsSpeakMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// SynthesizeStream opens the speak WebSocket, sends the full text, flushes,
// and returns a channel emitting PCM chunks as Deepgram produces them.
func (p *Provider) SynthesizeStream(ctx context.Context, text, voiceID string) (<-chan []byte, error) {
	if err := validateInput(text, voiceID); err != nil {
		return nil, err
	}

	wsURL := p.wsBaseURL + "/v1/speak?" + p.speakQuery(voiceID)
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Token " + p.apiKey}},
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial speak socket: %w", err)
	}

	speak, _ := json.Marshal(wsSpeakMessage{Type: "Speak", Text: text})
	if err := conn.Write(ctx, websocket.MessageText, speak); err != nil {
		conn.Close(websocket.StatusInternalError, "failed to send text")
		return nil, fmt.Errorf("deepgram: send text: %w", err)
	}
	flush, _ := json.Marshal(wsSpeakMessage{Type: "Flush"})
	if err := conn.Write(ctx, websocket.MessageText, flush); err != nil {
		conn.Close(websocket.StatusInternalError, "failed to flush")
		return nil, fmt.Errorf("deepgram: flush: %w", err)
	}

	audioCh := make(chan []byte, wsChunkBuf)
	go func() {
		defer close(audioCh)
		defer conn.Close(websocket.StatusNormalClosure, "done")
		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				return
			}
			switch typ {
			case websocket.MessageBinary:
				select {
				case audioCh <- msg:
				case <-ctx.Done():
					return
				}
			case websocket.MessageText:
				// Metadata / Flushed control messages. Flushed marks the end
				// of audio for our single utterance.
				var ctl wsSpeakMessage
				if json.Unmarshal(msg, &ctl) == nil && ctl.Type == "Flushed" {
					return
				}
			}
		}
	}()
	return audioCh, nil
}

// ListVoices returns the static Aura-2 voice catalogue. The speak API has no
// voice-listing endpoint; the catalogue ships with the client.
func (p *Provider) ListVoices(_ context.Context) ([]tts.Voice, error) {
	out := make([]tts.Voice, len(Voices))
	copy(out, Voices)
	return out, nil
}

// speakURL builds the REST speak endpoint URL for the given voice model.
func (p *Provider) speakURL(voiceID string) string {
	return p.baseURL + "/v1/speak?" + p.speakQuery(voiceID)
}

// speakQuery builds the shared query parameters for REST and WebSocket calls.
func (p *Provider) speakQuery(voiceID string) string {
	q := url.Values{}
	q.Set("model", voiceID)
	q.Set("encoding", "linear16")
	q.Set("container", "none")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	if p.speed != 0 && p.speed != 1 {
		q.Set("speed", strconv.FormatFloat(p.speed, 'g', -1, 64))
	}
	return q.Encode()
}

// validateInput enforces the speak API's allow-list and text cap before any
// network traffic happens.
func validateInput(text, voiceID string) error {
	if !IsKnownModel(voiceID) {
		return fmt.Errorf("deepgram: %w: %q", tts.ErrUnknownVoice, voiceID)
	}
	if len(text) == 0 {
		return fmt.Errorf("deepgram: text must not be empty")
	}
	if len(text) > MaxTextLength {
		return fmt.Errorf("deepgram: %w: %d > %d chars", tts.ErrTextTooLong, len(text), MaxTextLength)
	}
	return nil
}
