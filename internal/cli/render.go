package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/internal/engine"
	"github.com/attunelabs/attune/pkg/assets"
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
)

// synthesisWait bounds how long the renderer holds the virtual clock while a
// remote synthesis request is in flight.
const synthesisWait = 30 * time.Second

func newRenderCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render <session.yaml>",
		Short: "Render a session to a WAV file offline",
		Long: `Render plays the whole session through the audio graph under a virtual
clock and writes the mix to a stereo PCM WAV file. Rendering runs faster than
real time; remote narration, if configured, pauses the clock until each
utterance has been synthesized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd.Context(), args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output WAV path (default: session name with .wav)")
	return cmd
}

func (a *app) runRender(ctx context.Context, path, out string) error {
	sess, err := session.Load(path)
	if err != nil {
		return err
	}
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out = base + ".wav"
	}

	provider, closer, err := a.buildTTS()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}
	if provider == nil {
		a.log.Warn("no synthesis provider configured; prompts will be silent in the rendered file")
	}

	rate := a.cfg.Audio.SampleRate
	sink := audio.NewWAVSink(out, rate)
	graph, err := audio.NewContext(sink, rate)
	if err != nil {
		return err
	}
	store := assets.NewStore(a.cfg.Assets.Dir, audio.Format{SampleRate: rate, Channels: 2})

	frame := a.frameInterval()
	clk := engine.NewStepClock(time.Now())
	opts := []engine.Option{
		engine.WithLogger(a.log),
		engine.WithClock(clk),
		engine.WithFrameInterval(frame),
	}
	if provider != nil {
		opts = append(opts,
			engine.WithTTS(string(a.cfg.TTS.Provider), provider),
			engine.WithDefaultVoiceModel(a.cfg.TTS.Model),
		)
	}
	eng := engine.New(graph, store, opts...)

	eng.Subscribe(func(ev engine.Event) {
		if ev.Type == engine.EventError {
			p := ev.Payload.(engine.ErrorPayload)
			a.log.Warn("render degraded", "op", p.Op, "err", p.Err)
		}
	})

	if err := eng.LoadSession(sess); err != nil {
		eng.Dispose()
		return err
	}
	if err := eng.Play(ctx); err != nil {
		eng.Dispose()
		return err
	}

	frames := int(float64(rate) * frame.Seconds())
	buf := make([]int16, frames*2)
	start := time.Now()
	for eng.TransportState() == engine.Playing {
		if err := ctx.Err(); err != nil {
			eng.Dispose()
			return err
		}
		if err := waitForSynthesis(ctx, eng); err != nil {
			eng.Dispose()
			return err
		}
		if err := graph.WriteFrame(buf, clk.Now()); err != nil {
			eng.Dispose()
			return fmt.Errorf("render frame at %.2fs: %w", eng.CurrentTime(), err)
		}
		clk.Advance(frame)
	}

	if err := eng.Dispose(); err != nil {
		return err
	}
	a.log.Info("render complete",
		"out", out,
		"duration", sess.Duration,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// waitForSynthesis blocks in real time while the engine has an utterance
// waiting on the synthesis provider, so the virtual clock does not run past
// the prompt before its audio exists.
func waitForSynthesis(ctx context.Context, eng *engine.Engine) error {
	if !eng.PendingSynthesis() {
		return nil
	}
	deadline := time.Now().Add(synthesisWait)
	for eng.PendingSynthesis() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("synthesis did not complete within %s", synthesisWait)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
