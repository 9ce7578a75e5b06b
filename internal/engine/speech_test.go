package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/attunelabs/attune/pkg/provider/tts"
	ttsmock "github.com/attunelabs/attune/pkg/provider/tts/mock"
	"github.com/attunelabs/attune/pkg/session"
	"github.com/attunelabs/attune/pkg/speaker"
	speakermock "github.com/attunelabs/attune/pkg/speaker/mock"
)

// onePCMSecond is one second of silence in the mock provider's 24 kHz mono
// output format.
func onePCMSecond() []byte { return make([]byte, 24000*2) }

func promptSession(prompts ...session.PromptItem) *session.Session {
	s := testSession()
	s.Prompts = prompts
	return s
}

func prompt(id string, start float64, text, voice string) session.PromptItem {
	return session.PromptItem{
		ID:        id,
		StartTime: start,
		Duration:  5,
		Text:      text,
		Voice:     session.VoiceConfig{Voice: voice, Rate: 1, Pitch: 1},
	}
}

func (e *Engine) sounding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speech.active != nil && e.speech.active.sounding
}

func (e *Engine) narrating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speech.active != nil
}

func (e *Engine) cancellable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speech.active != nil && e.speech.active.cancel != nil
}

func (e *Engine) cachedBuffers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.speech.buffers)
}

func synthCalls(p *ttsmock.Provider) func() bool {
	return func() bool { return len(p.Calls()) > 0 }
}

// heldSpeaker accepts utterances but leaves the start and end callbacks for
// the test to fire.
type heldSpeaker struct {
	mu sync.Mutex
	ev *speaker.Events
}

func (h *heldSpeaker) Available() bool { return true }

func (h *heldSpeaker) Voices(context.Context) ([]speaker.Voice, error) { return nil, nil }

func (h *heldSpeaker) Speak(_ context.Context, _ speaker.Utterance, ev speaker.Events) (func(), error) {
	h.mu.Lock()
	h.ev = &ev
	h.mu.Unlock()
	return func() {}, nil
}

func (h *heldSpeaker) events() (speaker.Events, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ev == nil {
		return speaker.Events{}, false
	}
	return *h.ev, true
}

func TestEngine_PromptRemoteRoute(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: onePCMSecond()}
	sess := promptSession(prompt("p1", 1, "Settle into your seat.", "default"))
	e, clk, rec := newTestEngine(t, sess,
		WithTTS("mock", provider),
		WithDefaultVoiceModel("calm-1"),
	)

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)

	starts := rec.ofType(EventPromptStart)
	if len(starts) != 1 {
		t.Fatalf("prompt-start events = %d, want 1", len(starts))
	}
	p := starts[0].Payload.(PromptPayload)
	if p.Route != RouteRemote {
		t.Errorf("route = %v, want remote", p.Route)
	}
	if p.Prompt.ID != "p1" {
		t.Errorf("prompt = %q, want p1", p.Prompt.ID)
	}

	waitFor(t, "synthesis to start playback", e.sounding)
	call := provider.SynthesizeCalls[0]
	if call.Text != "Settle into your seat." || call.VoiceID != "calm-1" {
		t.Errorf("synthesize call = (%q, %q), want text and default model", call.Text, call.VoiceID)
	}

	clk.Advance(1500 * time.Millisecond)
	ends := rec.ofType(EventPromptEnd)
	if len(ends) != 1 {
		t.Fatalf("prompt-end events = %d, want 1", len(ends))
	}
	if got := ends[0].Payload.(PromptPayload).Route; got != RouteRemote {
		t.Errorf("end route = %v, want remote", got)
	}
	if e.narrating() {
		t.Error("utterance still active after its audio finished")
	}
}

func TestEngine_PromptNativeRouteWithoutProvider(t *testing.T) {
	t.Parallel()
	sp := &speakermock.Speaker{AvailableResult: true}
	sess := promptSession(prompt("p1", 1, "Breathe in.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)

	waitFor(t, "prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })

	starts := rec.ofType(EventPromptStart)
	if len(starts) != 1 {
		t.Fatalf("prompt-start events = %d, want 1", len(starts))
	}
	if got := starts[0].Payload.(PromptPayload).Route; got != RouteNative {
		t.Errorf("route = %v, want native", got)
	}
	if len(sp.SpeakCalls) != 1 {
		t.Fatalf("speak calls = %d, want 1", len(sp.SpeakCalls))
	}
	if got := sp.SpeakCalls[0].Utterance.Text; got != "Breathe in." {
		t.Errorf("spoken text = %q", got)
	}
}

func TestEngine_PromptVoiceRouting(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{
		SynthesizeResult: onePCMSecond(),
		ListVoicesResult: []tts.Voice{{ID: "aura-2-thalia-en", Name: "Thalia"}},
	}
	sp := &speakermock.Speaker{
		AvailableResult: true,
		VoicesResult:    []speaker.Voice{{ID: "en-gb", Name: "Rachel", Language: "en-GB"}},
	}
	sess := promptSession(
		prompt("p1", 1, "A system voice.", "Rachel"),
		prompt("p2", 3, "A provider voice.", "aura-2-thalia-en"),
	)
	e, clk, rec := newTestEngine(t, sess, WithTTS("mock", provider), WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "native prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })

	if len(sp.SpeakCalls) != 1 {
		t.Fatalf("speak calls = %d, want 1", len(sp.SpeakCalls))
	}
	if got := sp.SpeakCalls[0].Utterance.Voice; got != "en-gb" {
		t.Errorf("native voice = %q, want matched id en-gb", got)
	}

	clk.Advance(2 * time.Second)
	waitFor(t, "remote synthesis", e.sounding)

	starts := rec.ofType(EventPromptStart)
	if len(starts) != 2 {
		t.Fatalf("prompt-start events = %d, want 2", len(starts))
	}
	if got := starts[0].Payload.(PromptPayload).Route; got != RouteNative {
		t.Errorf("first route = %v, want native", got)
	}
	if got := starts[1].Payload.(PromptPayload).Route; got != RouteRemote {
		t.Errorf("second route = %v, want remote", got)
	}
}

func TestEngine_SynthesisFailureFallsBackToSpeaker(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeErr: errors.New("upstream unavailable")}
	sp := &speakermock.Speaker{AvailableResult: true}
	sess := promptSession(prompt("p1", 1, "Relax your shoulders.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithTTS("mock", provider), WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)

	waitFor(t, "fallback prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })

	if rec.count(EventError) == 0 {
		t.Error("expected an error event for the failed synthesis")
	}
	if len(sp.SpeakCalls) != 1 {
		t.Fatalf("speak calls = %d, want 1 fallback delivery", len(sp.SpeakCalls))
	}
	if got := rec.ofType(EventPromptEnd)[0].Payload.(PromptPayload).Route; got != RouteNative {
		t.Errorf("end route = %v, want native after fallback", got)
	}
	if got := e.TransportState(); got != Playing {
		t.Errorf("state = %v, want playback to continue", got)
	}
}

func TestEngine_StaleSynthesisDiscarded(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	provider := &ttsmock.Provider{
		SynthesizeResult: onePCMSecond(),
		SynthesizeDelay:  release,
	}
	sess := promptSession(prompt("p1", 1, "Notice your breath.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithTTS("mock", provider))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "synthesis request", synthCalls(provider))

	// Jump past the prompt while synthesis is still in flight.
	e.Seek(50)
	if got := rec.count(EventPromptEnd); got != 1 {
		t.Fatalf("prompt-end events = %d, want 1 from the cancellation", got)
	}

	close(release)
	waitFor(t, "synthesis result to be cached", func() bool { return e.cachedBuffers() == 1 })

	if e.narrating() {
		t.Error("stale synthesis resurrected an utterance")
	}
	if got := rec.count(EventPromptStart); got != 1 {
		t.Errorf("prompt-start events = %d, want 1", got)
	}
	if got := rec.count(EventPromptEnd); got != 1 {
		t.Errorf("prompt-end events = %d, want still 1", got)
	}
	if got := e.TransportState(); got != Playing {
		t.Errorf("state = %v, want playing", got)
	}
}

func TestEngine_SynthesisCacheAvoidsRepeatCalls(t *testing.T) {
	t.Parallel()
	provider := &ttsmock.Provider{SynthesizeResult: onePCMSecond()}
	sess := promptSession(prompt("p1", 1, "Let go.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithTTS("mock", provider))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "first synthesis", e.sounding)
	clk.Advance(1500 * time.Millisecond)
	waitFor(t, "first prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })

	// Replay from the top: the trigger must hit the buffer cache.
	e.Stop()
	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)

	if got := rec.count(EventPromptStart); got != 2 {
		t.Fatalf("prompt-start events = %d, want 2", got)
	}
	if !e.sounding() {
		t.Error("cached buffer did not start playback synchronously")
	}
	if got := len(provider.SynthesizeCalls); got != 1 {
		t.Errorf("synthesize calls = %d, want 1 (second delivery cached)", got)
	}
}

func TestEngine_PauseCancelsNarration(t *testing.T) {
	t.Parallel()
	sp := &speakermock.Speaker{AvailableResult: true, Manual: true}
	sess := promptSession(prompt("p1", 1, "Stay present.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "narration to become cancellable", e.cancellable)

	e.Pause()
	if got := rec.count(EventPromptEnd); got != 1 {
		t.Fatalf("prompt-end events = %d, want 1 from the pause", got)
	}
	if e.narrating() {
		t.Error("utterance still active after pause")
	}

	// The speaker's late end callback for the cancelled utterance must not
	// produce a second prompt-end.
	sp.FinishAll()
	time.Sleep(10 * time.Millisecond)
	if got := rec.count(EventPromptEnd); got != 1 {
		t.Errorf("prompt-end events = %d, want still 1", got)
	}
}

func TestEngine_SpeakerUnavailableStillBalancesEvents(t *testing.T) {
	t.Parallel()
	sess := promptSession(prompt("p1", 1, "Soften your gaze.", "default"))
	e, clk, rec := newTestEngine(t, sess)

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)

	waitFor(t, "prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })
	if got := rec.count(EventPromptStart); got != 1 {
		t.Errorf("prompt-start events = %d, want 1", got)
	}
	if got := e.TransportState(); got != Playing {
		t.Errorf("state = %v, want playback to continue", got)
	}
}

func TestEngine_NativePromptStartFollowsUtteranceStart(t *testing.T) {
	t.Parallel()
	sp := &heldSpeaker{}
	sess := promptSession(prompt("p1", 1, "Let your jaw soften.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "speak dispatch", func() bool { _, ok := sp.events(); return ok })

	// The host facility has not begun speaking yet.
	if got := rec.count(EventPromptStart); got != 0 {
		t.Fatalf("prompt-start events = %d, want 0 before the utterance starts", got)
	}

	ev, _ := sp.events()
	ev.OnStart()
	if got := rec.count(EventPromptStart); got != 1 {
		t.Fatalf("prompt-start events = %d, want 1 once the utterance starts", got)
	}
	if got := rec.ofType(EventPromptStart)[0].Payload.(PromptPayload).Route; got != RouteNative {
		t.Errorf("route = %v, want native", got)
	}

	ev.OnEnd()
	waitFor(t, "prompt-end", func() bool { return rec.count(EventPromptEnd) == 1 })
}

func TestEngine_SeekReArmsLaterPrompts(t *testing.T) {
	t.Parallel()
	sp := &speakermock.Speaker{AvailableResult: true}
	sess := promptSession(
		prompt("p1", 1, "First.", "default"),
		prompt("p2", 10, "Second.", "default"),
	)
	e, clk, rec := newTestEngine(t, sess, WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(1100 * time.Millisecond)
	waitFor(t, "first delivery", func() bool { return rec.count(EventPromptEnd) == 1 })

	// Seeking back before p1 re-arms it; p2 has not fired yet.
	e.Seek(0.5)
	clk.Advance(time.Second)
	waitFor(t, "repeat delivery", func() bool { return rec.count(EventPromptEnd) == 2 })
	if got := rec.count(EventPromptStart); got != 2 {
		t.Errorf("prompt-start events = %d, want 2 (p1 twice)", got)
	}

	// Seeking forward past p2 leaves its trigger mark alone; the never-played
	// prompt fires on the next tick.
	e.Seek(20)
	clk.Advance(100 * time.Millisecond)
	waitFor(t, "skipped prompt delivery", func() bool { return rec.count(EventPromptEnd) == 3 })
	if got := rec.count(EventPromptStart); got != 3 {
		t.Errorf("prompt-start events = %d, want 3 after seeking past an unplayed prompt", got)
	}
}

func TestEngine_SeekForwardFiresUnplayedPrompt(t *testing.T) {
	t.Parallel()
	sp := &speakermock.Speaker{AvailableResult: true}
	sess := promptSession(prompt("p1", 5, "Notice the weight of your body.", "default"))
	e, clk, rec := newTestEngine(t, sess, WithSpeaker(sp))

	mustPlay(t, e)
	clk.Advance(time.Second)
	if got := rec.count(EventPromptStart); got != 0 {
		t.Fatalf("prompt-start events = %d, want 0 before the start time", got)
	}

	e.Seek(10)
	clk.Advance(100 * time.Millisecond)
	waitFor(t, "prompt delivery", func() bool { return rec.count(EventPromptEnd) == 1 })
	if got := rec.count(EventPromptStart); got != 1 {
		t.Errorf("prompt-start events = %d, want 1 after seeking past the prompt", got)
	}
}
