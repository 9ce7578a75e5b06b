package cli

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/internal/engine"
	"github.com/attunelabs/attune/pkg/assets"
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
	"github.com/attunelabs/attune/pkg/speaker"
)

// stopFade is the master fade applied when playback is interrupted.
const stopFade = 0.5

func newPlayCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "play <session.yaml>",
		Short: "Play a session through the local audio device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlay(cmd.Context(), args[0], watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the session when its file changes")
	return cmd
}

func (a *app) runPlay(ctx context.Context, path string, watch bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.Load(path)
	if err != nil {
		return err
	}

	// Telemetry first: the engine binds its instruments to the global meter
	// provider at construction time.
	if a.cfg.Metrics.Enabled {
		shutdown, err := a.serveMetrics(ctx)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	provider, closer, err := a.buildTTS()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	sp := speaker.NewESpeak()
	if !sp.Available() {
		a.log.Warn("espeak-ng not found on PATH; host narration disabled")
	}

	rate := a.cfg.Audio.SampleRate
	var sink audio.Sink
	if name, args, ok := audio.PlayerCommand(rate); ok {
		a.log.Debug("audio output via external player", "player", name)
		sink = audio.NewExecSink(name, args...)
	} else {
		a.log.Warn("no raw PCM player found (aplay/ffplay); playing silently")
		sink = audio.NullSink{}
	}

	graph, err := audio.NewContext(sink, rate)
	if err != nil {
		return err
	}
	store := assets.NewStore(a.cfg.Assets.Dir, audio.Format{SampleRate: rate, Channels: 2})

	opts := []engine.Option{
		engine.WithLogger(a.log),
		engine.WithSpeaker(sp),
		engine.WithFrameInterval(a.frameInterval()),
	}
	if provider != nil {
		opts = append(opts,
			engine.WithTTS(string(a.cfg.TTS.Provider), provider),
			engine.WithDefaultVoiceModel(a.cfg.TTS.Model),
		)
	}
	eng := engine.New(graph, store, opts...)
	defer eng.Dispose()

	finished := make(chan struct{})
	var once sync.Once
	eng.Subscribe(func(ev engine.Event) {
		switch ev.Type {
		case engine.EventPromptStart:
			p := ev.Payload.(engine.PromptPayload)
			a.log.Info("narrating", "route", p.Route, "text", p.Prompt.Text)
		case engine.EventError:
			p := ev.Payload.(engine.ErrorPayload)
			a.log.Warn("playback degraded", "op", p.Op, "err", p.Err)
		case engine.EventTransportChange:
			if ev.Payload.(engine.TransportPayload).State == engine.Stopped {
				once.Do(func() { close(finished) })
			}
		}
	})

	if err := eng.LoadSession(sess); err != nil {
		return err
	}

	if watch {
		w, err := session.NewWatcher(path, func(_, next *session.Session) {
			a.reloadSession(eng, next)
		})
		if err != nil {
			return err
		}
		defer w.Stop()
		a.log.Info("watching session file for changes", "path", path)
	}

	if err := eng.Play(ctx); err != nil {
		return err
	}
	a.log.Info("playback started",
		"session", sess.Name,
		"duration", sess.Duration,
		"prompts", len(sess.Prompts),
		"ambients", len(sess.Ambients),
	)

	renderCtx, stopRender := context.WithCancel(context.Background())
	defer stopRender()
	go renderLoop(renderCtx, graph, rate, a.frameInterval())

	select {
	case <-finished:
		a.log.Info("session finished")
	case <-ctx.Done():
		a.log.Info("interrupted, fading out")
		eng.StopWithFade(stopFade)
		select {
		case <-finished:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

// reloadSession swaps the engine onto an updated session document, keeping
// the playback position and transport state.
func (a *app) reloadSession(eng *engine.Engine, next *session.Session) {
	d := session.Diff(eng.Session(), next)
	if d.Empty() {
		return
	}
	a.log.Info("session file changed",
		"prompt_changes", len(d.PromptChanges),
		"ambient_changes", len(d.AmbientChanges),
		"binaural_changed", d.BinauralChanged,
		"duration_changed", d.DurationChanged,
	)

	pos := eng.CurrentTime()
	wasPlaying := eng.TransportState() == engine.Playing
	if err := eng.LoadSession(next); err != nil {
		a.log.Error("reload failed, keeping previous session", "err", err)
		return
	}
	if pos > next.Duration {
		pos = next.Duration
	}
	eng.Seek(pos)
	if wasPlaying {
		if err := eng.Play(context.Background()); err != nil {
			a.log.Error("resume after reload failed", "err", err)
		}
	}
}

// renderLoop drives the audio graph in real time, one frame per tick.
func renderLoop(ctx context.Context, graph *audio.Context, rate int, interval time.Duration) {
	frames := int(float64(rate) * interval.Seconds())
	buf := make([]int16, frames*2)

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			if err := graph.WriteFrame(buf, now); err != nil {
				return
			}
		}
	}
}

func (a *app) frameInterval() time.Duration {
	ms := a.cfg.Audio.FrameIntervalMS
	if ms <= 0 {
		ms = 16
	}
	return time.Duration(ms) * time.Millisecond
}
