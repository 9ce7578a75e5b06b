package engine

import (
	"testing"
	"time"

	"github.com/attunelabs/attune/pkg/session"
)

func ambientSession(items ...session.AmbientItem) *session.Session {
	s := testSession()
	s.Ambients = items
	return s
}

func (e *Engine) ambientVoiceFor(id string) *ambientVoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ambients[id]
}

func TestEngine_AmbientPreloadEmitsLoadedEvents(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 0, EndTime: 30, Volume: 0.5},
		session.AmbientItem{ID: "a2", SoundID: "bowl", StartTime: 10, EndTime: 20, Volume: 0.8},
	)
	e, _, rec := newTestEngine(t, sess)

	mustPlay(t, e)

	loaded := map[string]bool{}
	for _, ev := range rec.ofType(EventAmbientLoaded) {
		loaded[ev.Payload.(AmbientPayload).SoundID] = true
	}
	if !loaded["rain"] || !loaded["bowl"] {
		t.Errorf("loaded sounds = %v, want rain and bowl", loaded)
	}
}

func TestEngine_AmbientMissingAssetIsReportedAndSkipped(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		// "ocean" is in the catalogue but no ocean.wav exists in the test dir.
		session.AmbientItem{ID: "a1", SoundID: "ocean", StartTime: 0, EndTime: 30, Volume: 0.5},
	)
	e, clk, rec := newTestEngine(t, sess)

	mustPlay(t, e)

	if rec.count(EventError) == 0 {
		t.Error("expected an error event for the missing asset")
	}
	if got := e.TransportState(); got != Playing {
		t.Errorf("state = %v, want playback to continue without the asset", got)
	}

	clk.Advance(time.Second)
	if v := e.ambientVoiceFor("a1"); v != nil {
		t.Error("expected no voice for the failed sound")
	}
	// The failure is reported once, not once per tick.
	if got := rec.count(EventError); got != 1 {
		t.Errorf("error events = %d, want 1", got)
	}
}

func TestEngine_AmbientStartsAndStopsWithWindow(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 1, EndTime: 5, Volume: 0.5},
	)
	e, clk, _ := newTestEngine(t, sess)

	mustPlay(t, e)
	clk.Advance(500 * time.Millisecond)
	if v := e.ambientVoiceFor("a1"); v != nil {
		t.Error("voice sounding before its window")
	}

	clk.Advance(time.Second) // t = 1.5
	if v := e.ambientVoiceFor("a1"); v == nil {
		t.Fatal("voice not sounding inside its window")
	}

	clk.Advance(4 * time.Second) // t = 5.5
	if v := e.ambientVoiceFor("a1"); v != nil {
		t.Error("voice still sounding after its window")
	}
}

func TestEngine_AmbientFadeEnvelope(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 0, EndTime: 20, Volume: 0.5, FadeIn: 2, FadeOut: 2},
	)
	e, clk, _ := newTestEngine(t, sess)

	mustPlay(t, e)
	clk.Advance(time.Second) // t = 1, halfway through the fade-in
	v := e.ambientVoiceFor("a1")
	if v == nil {
		t.Fatal("voice not sounding")
	}
	// The voice starts on the first tick after Play, so the ramp anchor sits
	// one frame into the fade; allow a small tolerance.
	if g := v.gain.ValueAt(clk.Now()); g < 0.24 || g > 0.26 {
		t.Errorf("gain at t=1 = %v, want ~0.25", g)
	}

	clk.Advance(5 * time.Second) // t = 6, sustain
	if g := v.gain.ValueAt(clk.Now()); !approx(g, 0.5) {
		t.Errorf("gain at t=6 = %v, want 0.5", g)
	}

	clk.Advance(13 * time.Second) // t = 19, halfway through the fade-out
	if g := v.gain.ValueAt(clk.Now()); !approx(g, 0.25) {
		t.Errorf("gain at t=19 = %v, want 0.25", g)
	}
}

func TestEngine_AmbientSeekIntoFadeMatchesEnvelope(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 10, EndTime: 30, Volume: 0.8, FadeIn: 4},
	)
	e, clk, _ := newTestEngine(t, sess)

	mustPlay(t, e)
	e.Seek(12) // halfway through the fade-in
	clk.Advance(20 * time.Millisecond)

	v := e.ambientVoiceFor("a1")
	if v == nil {
		t.Fatal("voice not sounding after seek into its window")
	}
	if g := v.gain.ValueAt(clk.Now()); g < 0.35 || g > 0.45 {
		t.Errorf("gain just after seek = %v, want ~0.4", g)
	}

	clk.Advance(2 * time.Second) // t = 14, fade-in complete
	if g := v.gain.ValueAt(clk.Now()); !approx(g, 0.8) {
		t.Errorf("gain after fade-in = %v, want 0.8", g)
	}
}

func TestEngine_AmbientFadesClampedToHalfSpan(t *testing.T) {
	t.Parallel()
	item := session.AmbientItem{
		ID: "a1", SoundID: "rain",
		StartTime: 0, EndTime: 4,
		Volume: 1.0, FadeIn: 10, FadeOut: 10,
	}

	fadeIn, fadeOut := clampFades(item)
	if fadeIn != 2 || fadeOut != 2 {
		t.Errorf("clamped fades = (%v, %v), want (2, 2)", fadeIn, fadeOut)
	}
}

func TestEngine_AmbientTornDownOnPause(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 0, EndTime: 30, Volume: 0.5},
	)
	e, clk, _ := newTestEngine(t, sess)

	mustPlay(t, e)
	clk.Advance(time.Second)
	if v := e.ambientVoiceFor("a1"); v == nil {
		t.Fatal("voice not sounding")
	}

	e.Pause()
	if v := e.ambientVoiceFor("a1"); v != nil {
		t.Error("voice still sounding while paused")
	}

	mustPlay(t, e)
	clk.Advance(100 * time.Millisecond)
	if v := e.ambientVoiceFor("a1"); v == nil {
		t.Error("voice not rebuilt after resume")
	}
}

func TestEngine_AmbientSeekPastWindowRemovesVoice(t *testing.T) {
	t.Parallel()
	sess := ambientSession(
		session.AmbientItem{ID: "a1", SoundID: "rain", StartTime: 0, EndTime: 10, Volume: 0.5},
	)
	e, clk, _ := newTestEngine(t, sess)

	mustPlay(t, e)
	clk.Advance(time.Second)
	if v := e.ambientVoiceFor("a1"); v == nil {
		t.Fatal("voice not sounding")
	}

	e.Seek(20)
	clk.Advance(100 * time.Millisecond)
	if v := e.ambientVoiceFor("a1"); v != nil {
		t.Error("voice still sounding after seeking past its window")
	}
}
