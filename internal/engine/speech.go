package engine

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/attunelabs/attune/internal/observe"
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
	"github.com/attunelabs/attune/pkg/speaker"
)

// utterance is the narration currently being delivered. At most one exists;
// a newly triggered prompt supersedes the previous one.
type utterance struct {
	prompt session.PromptItem
	route  PromptRoute
	gen    uint64

	// native route
	cancel  func()
	started bool

	// remote route, once synthesis lands
	src      *audio.BufferSource
	gain     *audio.Gain
	endAt    time.Time
	sounding bool
}

// speechDirector routes narration prompts between the remote synthesis
// provider and the host speech facility. The generation counter advances on
// every trigger and cancellation; asynchronous completions carrying an old
// generation are discarded, so a seek or stop can never resurrect a stale
// utterance.
type speechDirector struct {
	gen    uint64
	active *utterance

	// buffers caches synthesized audio by voice and text for the lifetime of
	// the loaded session, so replaying or seeking over a prompt does not
	// re-synthesize it.
	buffers map[string]*audio.Buffer

	remoteVoices map[string]bool
	remoteLoaded bool

	nativeVoices []speaker.Voice
	nativeLoaded bool
}

func (d *speechDirector) init() {
	d.buffers = make(map[string]*audio.Buffer)
}

func (d *speechDirector) clearCache() {
	d.buffers = make(map[string]*audio.Buffer)
}

func bufferKey(voiceID, text string) string {
	return voiceID + "\n" + text
}

// ensureRemoteVoices fetches the provider voice catalogue once per process so
// prompt routing can check voice membership without a network call. A fetch
// failure is logged and retried on the next Play; until then only "default"
// prompts route remotely.
func (e *Engine) ensureRemoteVoices(ctx context.Context) {
	if e.provider == nil {
		return
	}
	e.mu.Lock()
	loaded := e.speech.remoteLoaded
	e.mu.Unlock()
	if loaded {
		return
	}

	voices, err := e.provider.ListVoices(ctx)
	if err != nil {
		e.log.Warn("listing provider voices failed", "provider", e.providerName, "err", err)
		return
	}
	set := make(map[string]bool, len(voices)*2)
	for _, v := range voices {
		set[v.ID] = true
		set[strings.ToLower(v.Name)] = true
	}

	e.mu.Lock()
	e.speech.remoteVoices = set
	e.speech.remoteLoaded = true
	e.mu.Unlock()
	e.log.Debug("provider voices loaded", "provider", e.providerName, "voices", len(voices))
}

// routeForLocked decides where a prompt's voice is rendered: the remote
// provider handles "default" and any voice in its catalogue, everything else
// goes to the host speech facility.
func (e *Engine) routeForLocked(voice string) PromptRoute {
	if e.provider == nil {
		return RouteNative
	}
	if voice == "" || voice == "default" {
		return RouteRemote
	}
	if e.speech.remoteVoices[voice] || e.speech.remoteVoices[strings.ToLower(voice)] {
		return RouteRemote
	}
	return RouteNative
}

// triggerPromptLocked starts delivery of prompt p. It returns the events to
// publish and an optional dispatch function to run after the engine lock is
// released (network synthesis and host speech must not run under the lock).
func (e *Engine) triggerPromptLocked(now time.Time, p session.PromptItem) ([]Event, func()) {
	evs := e.cancelSpeechLocked(now)

	voice := p.Voice.Voice
	route := e.routeForLocked(voice)
	e.speech.gen++
	utt := &utterance{prompt: p, route: route, gen: e.speech.gen}
	e.speech.active = utt

	// Remote prompts announce themselves at trigger time, while synthesis is
	// in flight. Native prompts wait for the utterance-start callback.
	if route == RouteRemote {
		utt.started = true
		evs = append(evs, Event{
			Type:      EventPromptStart,
			Payload:   PromptPayload{Prompt: p, Route: route},
			Timestamp: now,
		})
	}
	e.metrics.RecordPromptSpoken(context.Background(), string(route))
	e.log.Info("prompt triggered", "prompt", p.ID, "route", route, "start", p.StartTime)

	if route == RouteRemote {
		voiceID := voice
		if voiceID == "" || voiceID == "default" {
			voiceID = e.defaultModel
		}
		buf, ok := e.speech.buffers[bufferKey(voiceID, p.Text)]
		e.metrics.RecordCacheLookup(context.Background(), ok)
		if ok {
			e.startRemotePlaybackLocked(now, utt, buf)
			return evs, nil
		}
		gen := utt.gen
		return evs, func() { go e.synthesize(gen, p, voiceID) }
	}

	gen := utt.gen
	return evs, func() { e.speakNative(gen, p) }
}

// startRemotePlaybackLocked begins playback of a synthesized buffer through
// the graph and records when it will finish so the tick loop can report the
// prompt's end.
func (e *Engine) startRemotePlaybackLocked(now time.Time, utt *utterance, buf *audio.Buffer) {
	src := e.graph.NewBufferSource(buf, false)
	gain := e.graph.NewGain(1)
	src.Connect(gain)
	gain.Connect(e.master)
	if err := src.Start(); err != nil {
		src.Disconnect()
		e.log.Warn("starting narration playback failed", "prompt", utt.prompt.ID, "err", err)
		e.speech.active = nil
		return
	}
	utt.src = src
	utt.gain = gain
	utt.endAt = now.Add(buf.Duration())
	utt.sounding = true
}

// synthesize runs one provider call and hands the result back to the engine.
// Runs on its own goroutine.
func (e *Engine) synthesize(gen uint64, p session.PromptItem, voiceID string) {
	ctx, span := observe.StartSpan(context.Background(), "tts.synthesize",
		trace.WithAttributes(observe.Attr("provider", e.providerName), observe.Attr("prompt", p.ID)))
	defer span.End()

	start := time.Now()
	pcm, err := e.provider.Synthesize(ctx, p.Text, voiceID)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
	}
	e.metrics.RecordSynthesis(ctx, e.providerName, status, time.Since(start).Seconds())

	if err != nil {
		e.metrics.RecordProviderError(ctx, e.providerName)
		e.onSynthesisError(gen, p, err)
		return
	}

	f := e.provider.Format()
	buf := &audio.Buffer{
		Data:       audio.BytesToSamples(pcm),
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
	conv, err := audio.Convert(buf, audio.Format{SampleRate: e.graph.SampleRate(), Channels: f.Channels})
	if err != nil {
		e.onSynthesisError(gen, p, err)
		return
	}
	e.onSynthesized(gen, p, voiceID, conv)
}

// onSynthesized caches the buffer and, if the triggering utterance is still
// current, starts playback. A superseded generation only feeds the cache.
func (e *Engine) onSynthesized(gen uint64, p session.PromptItem, voiceID string, buf *audio.Buffer) {
	e.mu.Lock()
	e.speech.buffers[bufferKey(voiceID, p.Text)] = buf

	utt := e.speech.active
	if utt == nil || utt.gen != gen || e.state != Playing {
		e.mu.Unlock()
		e.log.Debug("discarding superseded synthesis", "prompt", p.ID)
		return
	}
	e.startRemotePlaybackLocked(e.clock.Now(), utt, buf)
	e.mu.Unlock()
}

// onSynthesisError reports the failure and falls back to the host speech
// facility for the still-current utterance.
func (e *Engine) onSynthesisError(gen uint64, p session.PromptItem, err error) {
	now := e.clock.Now()
	e.publish(e.errorEvent(now, "synthesize", err))

	e.mu.Lock()
	utt := e.speech.active
	if utt == nil || utt.gen != gen || e.state != Playing {
		e.mu.Unlock()
		return
	}
	if e.speaker == nil || !e.speaker.Available() {
		e.speech.active = nil
		e.mu.Unlock()
		e.publish(Event{
			Type:      EventPromptEnd,
			Payload:   PromptPayload{Prompt: p, Route: RouteRemote},
			Timestamp: now,
		})
		return
	}
	utt.route = RouteNative
	e.mu.Unlock()

	e.log.Info("falling back to host speech", "prompt", p.ID)
	e.speakNative(gen, p)
}

// speakNative renders a prompt through the host speech facility. Runs outside
// the engine lock.
func (e *Engine) speakNative(gen uint64, p session.PromptItem) {
	now := e.clock.Now()
	if e.speaker == nil || !e.speaker.Available() {
		e.promptStarted(gen)
		e.finishUtterance(gen, "host speech unavailable")
		return
	}

	voiceID := ""
	if want := p.Voice.Voice; want != "" && want != "default" {
		voices, err := e.nativeVoices(context.Background())
		if err != nil {
			e.log.Warn("listing host voices failed", "err", err)
		} else if v, ok := speaker.MatchVoice(voices, want); ok {
			voiceID = v.ID
		} else {
			e.log.Warn("no installed voice matches", "voice", want)
		}
	}

	u := speaker.Utterance{
		Text:  p.Text,
		Voice: voiceID,
		Rate:  p.Voice.Rate,
		Pitch: p.Voice.Pitch,
	}
	cancel, err := e.speaker.Speak(context.Background(), u, speaker.Events{
		OnStart: func() { e.promptStarted(gen) },
		OnEnd:   func() { go e.finishUtterance(gen, "") },
	})
	if err != nil {
		e.publish(e.errorEvent(now, "speak", err))
		e.promptStarted(gen)
		e.finishUtterance(gen, "")
		return
	}

	e.mu.Lock()
	utt := e.speech.active
	if utt == nil || utt.gen != gen {
		e.mu.Unlock()
		cancel()
		return
	}
	utt.cancel = cancel
	e.mu.Unlock()
}

// nativeVoices lists the installed host voices, cached for the process
// lifetime.
func (e *Engine) nativeVoices(ctx context.Context) ([]speaker.Voice, error) {
	e.mu.Lock()
	if e.speech.nativeLoaded {
		voices := e.speech.nativeVoices
		e.mu.Unlock()
		return voices, nil
	}
	e.mu.Unlock()

	voices, err := e.speaker.Voices(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.speech.nativeVoices = voices
	e.speech.nativeLoaded = true
	e.mu.Unlock()
	return voices, nil
}

// promptStarted publishes the prompt-start event for the utterance carrying
// gen once the host speech facility actually begins speaking. At most one
// start is published per utterance, so a remote prompt that fell back to
// native speech is not announced twice.
func (e *Engine) promptStarted(gen uint64) {
	e.mu.Lock()
	utt := e.speech.active
	if utt == nil || utt.gen != gen || utt.started {
		e.mu.Unlock()
		return
	}
	utt.started = true
	p, route := utt.prompt, utt.route
	now := e.clock.Now()
	e.mu.Unlock()

	e.publish(Event{
		Type:      EventPromptStart,
		Payload:   PromptPayload{Prompt: p, Route: route},
		Timestamp: now,
	})
}

// finishUtterance ends the utterance carrying gen, if it is still current,
// and publishes its prompt-end event.
func (e *Engine) finishUtterance(gen uint64, reason string) {
	e.mu.Lock()
	utt := e.speech.active
	if utt == nil || utt.gen != gen {
		e.mu.Unlock()
		return
	}
	e.speech.active = nil
	now := e.clock.Now()
	e.mu.Unlock()

	if reason != "" {
		e.log.Warn("narration not delivered", "prompt", utt.prompt.ID, "reason", reason)
	}
	e.publish(Event{
		Type:      EventPromptEnd,
		Payload:   PromptPayload{Prompt: utt.prompt, Route: utt.route},
		Timestamp: now,
	})
}

// tickSpeechLocked detects the natural end of a remote utterance.
func (e *Engine) tickSpeechLocked(now time.Time) []Event {
	utt := e.speech.active
	if utt == nil || !utt.sounding || now.Before(utt.endAt) {
		return nil
	}
	utt.src.Stop()
	utt.src.Disconnect()
	e.speech.active = nil
	return []Event{{
		Type:      EventPromptEnd,
		Payload:   PromptPayload{Prompt: utt.prompt, Route: utt.route},
		Timestamp: now,
	}}
}

// cancelSpeechLocked stops the active utterance, if any, and returns its
// prompt-end event. Bumping the generation discards any synthesis or host
// speech still in flight for it.
func (e *Engine) cancelSpeechLocked(now time.Time) []Event {
	utt := e.speech.active
	if utt == nil {
		return nil
	}
	e.speech.active = nil
	e.speech.gen++

	if utt.src != nil {
		utt.src.Stop()
		utt.src.Disconnect()
	}
	if utt.cancel != nil {
		// The speaker's end callback re-checks the generation, so invoking
		// cancel from a goroutine cannot resurrect this utterance.
		go utt.cancel()
	}

	e.log.Debug("narration cancelled", "prompt", utt.prompt.ID)
	return []Event{{
		Type:      EventPromptEnd,
		Payload:   PromptPayload{Prompt: utt.prompt, Route: utt.route},
		Timestamp: now,
	}}
}
