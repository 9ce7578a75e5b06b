// Package engine implements the meditation playback engine: a transport
// (play / pause / stop / seek) driving three schedulers over a shared audio
// graph — ambient sound beds with fade envelopes, an optional binaural-beat
// tone pair, and timed narration prompts routed to remote synthesis or the
// host speech facility.
//
// All time flows through a [Clock]. With the default system clock the engine
// runs a frame scheduler on real timers; with a [StepClock] the same code is
// driven deterministically by tests and by the offline renderer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attunelabs/attune/internal/observe"
	"github.com/attunelabs/attune/pkg/assets"
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
	"github.com/attunelabs/attune/pkg/session"
	"github.com/attunelabs/attune/pkg/speaker"
)

// TransportState is the engine's playback state.
type TransportState int

const (
	// Stopped means the transport is at rest; position resets to zero.
	Stopped TransportState = iota

	// Playing means the position advances and schedulers are live.
	Playing

	// Paused means the position is frozen where playback halted.
	Paused
)

// String implements fmt.Stringer.
func (s TransportState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("TransportState(%d)", int(s))
	}
}

// DefaultFrameInterval is the scheduler tick period with the system clock.
const DefaultFrameInterval = 16 * time.Millisecond

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithClock replaces the system clock. Pass a [StepClock] to drive the engine
// manually.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithMetrics sets the metrics instruments (default observe.DefaultMetrics()).
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTTS configures the remote synthesis provider. name labels the provider
// in logs and metrics. Without this option all narration uses the host
// speech facility.
func WithTTS(name string, p tts.Provider) Option {
	return func(e *Engine) {
		e.providerName = name
		e.provider = p
	}
}

// WithSpeaker configures the host speech facility used when no provider is
// configured, when a prompt's voice is not a provider voice, and as the
// fallback when synthesis fails.
func WithSpeaker(sp speaker.Speaker) Option {
	return func(e *Engine) { e.speaker = sp }
}

// WithDefaultVoiceModel sets the provider voice model used for prompts whose
// voice is "default".
func WithDefaultVoiceModel(model string) Option {
	return func(e *Engine) { e.defaultModel = model }
}

// WithFrameInterval overrides the scheduler tick period.
func WithFrameInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.frameInterval = d
		}
	}
}

// Engine is the playback engine façade. All methods are safe for concurrent
// use. Events are delivered synchronously via [Engine.Subscribe].
type Engine struct {
	log     *slog.Logger
	clock   Clock
	bus     Bus
	metrics *observe.Metrics

	graph  *audio.Context
	store  *assets.Store
	master *audio.Gain

	provider     tts.Provider
	providerName string
	defaultModel string
	speaker      speaker.Speaker

	frameInterval time.Duration

	mu        sync.Mutex
	sess      *session.Session
	state     TransportState
	startedAt time.Time // playing: wall instant corresponding to position zero
	position  float64   // paused/stopped: frozen position in seconds

	volume float64
	muted  bool

	triggered map[string]bool
	ambients  map[string]*ambientVoice
	preloaded bool
	badSounds map[string]bool
	binaural  *binauralVoice

	speech speechDirector

	tickTimer   Timer
	pendingStop *stopTask
	disposed    bool
}

// stopTask is a deferred stop scheduled after a fade-out ramp. Play cancels
// it to abort the stop mid-fade.
type stopTask struct {
	timer     Timer
	cancelled bool
}

// New creates an Engine rendering into graph and reading ambient assets from
// store. The graph's master gain carries the engine's volume and mute state.
func New(graph *audio.Context, store *assets.Store, opts ...Option) *Engine {
	e := &Engine{
		log:           slog.Default(),
		clock:         SystemClock(),
		graph:         graph,
		store:         store,
		master:        graph.Master(),
		frameInterval: DefaultFrameInterval,
		volume:        1.0,
		triggered:     make(map[string]bool),
		ambients:      make(map[string]*ambientVoice),
		badSounds:     make(map[string]bool),
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	e.speech.init()
	return e
}

// Subscribe registers fn for playback events and returns an unsubscribe
// function.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	return e.bus.Subscribe(fn)
}

// Resume activates the audio graph. Safe to call repeatedly; [Engine.Play]
// resumes implicitly.
func (e *Engine) Resume() error {
	return e.graph.Resume()
}

// TransportState returns the current transport state.
func (e *Engine) TransportState() TransportState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentTime returns the playback position in seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTimeLocked(e.clock.Now())
}

// Session returns the loaded session document, or nil.
func (e *Engine) Session() *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// MasterVolume returns the configured master volume (unaffected by mute).
func (e *Engine) MasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// PendingSynthesis reports whether a narration prompt has triggered but its
// synthesized audio has not started sounding yet. The offline renderer holds
// the virtual clock while this is true so synthesis can catch up.
func (e *Engine) PendingSynthesis() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.speech.active
	return u != nil && u.route == RouteRemote && !u.sounding
}

// Muted reports whether output is muted.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) currentTimeLocked(now time.Time) float64 {
	if e.state == Playing {
		return now.Sub(e.startedAt).Seconds()
	}
	return e.position
}

// LoadSession installs a session document, stopping any current playback.
// The synthesized-narration buffer cache is cleared; ambient assets are
// preloaded on the next Play.
func (e *Engine) LoadSession(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("engine: session must not be nil")
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return fmt.Errorf("engine: disposed")
	}
	now := e.clock.Now()
	evs := e.stopPlaybackLocked(now)

	e.sess = s
	e.position = 0
	e.triggered = make(map[string]bool)
	e.badSounds = make(map[string]bool)
	e.preloaded = false
	e.speech.clearCache()
	e.mu.Unlock()

	e.log.Info("session loaded",
		"session", s.ID,
		"name", s.Name,
		"duration", s.Duration,
		"prompts", len(s.Prompts),
		"ambients", len(s.Ambients),
		"binaural", s.Binaural != nil,
	)
	e.publishAll(evs)
	return nil
}

// Play starts or resumes playback. The first Play after LoadSession decodes
// every referenced ambient sound; sounds that fail to load are reported via
// an error event and skipped for the rest of the session.
func (e *Engine) Play(ctx context.Context) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return fmt.Errorf("engine: disposed")
	}
	if e.sess == nil {
		e.mu.Unlock()
		e.log.Warn("play ignored, no session loaded")
		return nil
	}
	// A Play during a fade-out aborts the pending stop and restores the
	// master ramp. The transport is still Playing at that point, so this
	// must run before the already-playing check.
	if e.pendingStop != nil {
		e.pendingStop.cancelled = true
		e.pendingStop.timer.Stop()
		e.pendingStop = nil
		e.applyMasterLocked()
		if e.state == Playing {
			e.mu.Unlock()
			e.log.Info("fade-out stop cancelled")
			return nil
		}
	}
	if e.state == Playing {
		e.mu.Unlock()
		return nil
	}

	sess := e.sess
	preloaded := e.preloaded
	e.mu.Unlock()

	if err := e.graph.Resume(); err != nil {
		return fmt.Errorf("engine: resume graph: %w", err)
	}

	var preloadEvents []Event
	if !preloaded {
		preloadEvents = e.preloadAmbients(ctx, sess)
	}
	e.ensureRemoteVoices(ctx)

	e.mu.Lock()
	if e.disposed || e.state == Playing {
		e.mu.Unlock()
		e.publishAll(preloadEvents)
		return nil
	}
	now := e.clock.Now()
	e.preloaded = true
	e.startedAt = now.Add(-time.Duration(e.position * float64(time.Second)))
	e.state = Playing
	e.startBinauralLocked()
	e.scheduleTickLocked()
	t := e.currentTimeLocked(now)
	e.mu.Unlock()

	e.log.Info("playback started", "session", sess.ID, "position", t)
	e.publishAll(preloadEvents)
	e.publish(Event{Type: EventTransportChange, Payload: TransportPayload{State: Playing, Time: t}, Timestamp: now})
	return nil
}

// Pause freezes the transport. Sounding ambients and narration stop; the
// position is kept and Play resumes from it. Triggered prompts stay
// triggered, so a cancelled narration is not repeated on resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.state != Playing {
		e.mu.Unlock()
		return
	}
	now := e.clock.Now()
	t := e.currentTimeLocked(now)

	e.stopTickLocked()
	evs := e.teardownVoicesLocked(now)
	e.position = t
	e.state = Paused
	e.mu.Unlock()

	e.log.Info("playback paused", "position", t)
	e.publishAll(evs)
	e.publish(Event{Type: EventTransportChange, Payload: TransportPayload{State: Paused, Time: t}, Timestamp: now})
}

// Stop halts playback immediately and resets the position to zero. All
// prompt trigger marks are cleared, so a subsequent Play replays the session
// from the top.
func (e *Engine) Stop() {
	e.StopWithFade(0)
}

// StopWithFade ramps the master gain to silence over fade seconds, then
// stops. A Play issued during the ramp cancels the stop and restores the
// master gain. A non-positive fade stops immediately.
func (e *Engine) StopWithFade(fade float64) {
	e.mu.Lock()
	if e.state == Stopped && e.pendingStop == nil {
		e.mu.Unlock()
		return
	}
	now := e.clock.Now()

	if fade > 0 && e.state == Playing {
		if e.pendingStop != nil {
			// A fade-out is already in flight.
			e.mu.Unlock()
			return
		}
		d := time.Duration(fade * float64(time.Second))
		e.master.RampTo(0, now, now.Add(d))
		task := &stopTask{}
		task.timer = e.clock.AfterFunc(d, func() {
			e.finishFadeStop(task)
		})
		e.pendingStop = task
		e.mu.Unlock()
		e.log.Info("stop scheduled after fade", "fade", fade)
		return
	}

	evs := e.stopPlaybackLocked(now)
	e.mu.Unlock()

	e.log.Info("playback stopped")
	e.publishAll(evs)
}

// finishFadeStop completes a deferred stop unless it was cancelled by Play.
func (e *Engine) finishFadeStop(task *stopTask) {
	e.mu.Lock()
	if task.cancelled || e.pendingStop != task {
		e.mu.Unlock()
		return
	}
	e.pendingStop = nil
	now := e.clock.Now()
	evs := e.stopPlaybackLocked(now)
	e.mu.Unlock()

	e.log.Info("playback stopped after fade")
	e.publishAll(evs)
}

// stopPlaybackLocked tears down all voices, resets the transport to zero,
// and returns the events to publish. No-op when already stopped.
func (e *Engine) stopPlaybackLocked(now time.Time) []Event {
	if e.state == Stopped {
		return nil
	}

	e.stopTickLocked()
	evs := e.teardownVoicesLocked(now)
	e.position = 0
	e.state = Stopped
	e.triggered = make(map[string]bool)
	e.applyMasterLocked()

	evs = append(evs, Event{Type: EventTransportChange, Payload: TransportPayload{State: Stopped, Time: 0}, Timestamp: now})
	return evs
}

// teardownVoicesLocked silences every sounding voice: ambient beds, the
// binaural pair, and any active narration (which yields a prompt-end event).
func (e *Engine) teardownVoicesLocked(now time.Time) []Event {
	e.stopAllAmbientsLocked()
	e.stopBinauralLocked()
	return e.cancelSpeechLocked(now)
}

// Seek moves the position to t seconds, clamped to the session bounds.
// Prompts scheduled at or after the new position are re-armed; trigger marks
// for earlier prompts are left untouched, so a forward seek past a prompt
// that never played still fires it on the next tick. Active narration is
// cancelled. While playing, ambient voices are rebuilt on the next tick.
func (e *Engine) Seek(t float64) {
	e.mu.Lock()
	if e.sess == nil || e.disposed {
		e.mu.Unlock()
		return
	}
	if t < 0 {
		t = 0
	}
	if t > e.sess.Duration {
		t = e.sess.Duration
	}
	now := e.clock.Now()

	evs := e.cancelSpeechLocked(now)
	for _, p := range e.sess.Prompts {
		if p.StartTime >= t {
			e.triggered[p.ID] = false
		}
	}

	// Ambient envelopes are anchored to the old position; rebuild them.
	e.stopAllAmbientsLocked()

	if e.state == Playing {
		e.startedAt = now.Add(-time.Duration(t * float64(time.Second)))
	} else {
		e.position = t
	}
	e.mu.Unlock()

	e.log.Debug("seek", "position", t)
	e.publishAll(evs)
	e.publish(Event{Type: EventTimeUpdate, Payload: TimePayload{Time: t}, Timestamp: now})
}

// SetMasterVolume sets the master volume, clamped to [0, 1]. The value is
// retained across mute.
func (e *Engine) SetMasterVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.mu.Lock()
	e.volume = v
	e.applyMasterLocked()
	e.mu.Unlock()
}

// SetMuted mutes or unmutes output without losing the volume setting.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.applyMasterLocked()
	e.mu.Unlock()
}

func (e *Engine) applyMasterLocked() {
	if e.muted {
		e.master.SetValue(0)
		return
	}
	e.master.SetValue(e.volume)
}

// Tick advances the schedulers one frame: ambient voices are synchronised
// with the timeline, due prompts trigger, finished narration is reported,
// and a time-update event is published. With the system clock the engine
// ticks itself; with a manual clock each timer advance drives Tick.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.state != Playing || e.disposed {
		e.mu.Unlock()
		return
	}
	now := e.clock.Now()
	t := e.currentTimeLocked(now)

	if t >= e.sess.Duration {
		// The last time-update is pinned at the session duration so
		// subscribers see the timeline complete before the stop.
		evs := []Event{{Type: EventTimeUpdate, Payload: TimePayload{Time: e.sess.Duration}, Timestamp: now}}
		evs = append(evs, e.stopPlaybackLocked(now)...)
		e.mu.Unlock()
		e.log.Info("session finished", "session", e.sess.ID)
		e.publishAll(evs)
		return
	}

	evs := e.syncAmbientsLocked(now, t)
	evs = append(evs, e.tickSpeechLocked(now)...)

	var dispatch []func()
	for i := range e.sess.Prompts {
		p := e.sess.Prompts[i]
		if e.triggered[p.ID] || t < p.StartTime {
			continue
		}
		e.triggered[p.ID] = true
		ev, fn := e.triggerPromptLocked(now, p)
		evs = append(evs, ev...)
		if fn != nil {
			dispatch = append(dispatch, fn)
		}
	}

	evs = append(evs, Event{Type: EventTimeUpdate, Payload: TimePayload{Time: t}, Timestamp: now})
	e.scheduleTickLocked()
	e.mu.Unlock()

	for _, fn := range dispatch {
		fn()
	}
	e.publishAll(evs)
}

// scheduleTickLocked arms the next frame. The chain re-arms from Tick while
// the transport stays in Playing.
func (e *Engine) scheduleTickLocked() {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
	}
	e.tickTimer = e.clock.AfterFunc(e.frameInterval, e.Tick)
}

func (e *Engine) stopTickLocked() {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
		e.tickTimer = nil
	}
}

// Dispose stops playback and closes the audio graph. The engine cannot be
// used afterwards.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	now := e.clock.Now()
	evs := e.stopPlaybackLocked(now)
	e.disposed = true
	e.mu.Unlock()

	e.publishAll(evs)
	if err := e.graph.Close(); err != nil {
		return fmt.Errorf("engine: close graph: %w", err)
	}
	return nil
}

func (e *Engine) publish(ev Event) {
	e.bus.Publish(ev)
}

func (e *Engine) publishAll(evs []Event) {
	for _, ev := range evs {
		e.bus.Publish(ev)
	}
}

// errorEvent logs and counts a recoverable runtime failure and returns the
// event to publish for it.
func (e *Engine) errorEvent(now time.Time, op string, err error) Event {
	e.log.Warn("recoverable playback error", "op", op, "err", err)
	e.metrics.RecordEngineError(context.Background(), op)
	return Event{Type: EventError, Payload: ErrorPayload{Op: op, Err: err}, Timestamp: now}
}
