package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
	"github.com/attunelabs/attune/pkg/speaker"
)

func newVoicesCmd(a *app) *cobra.Command {
	var (
		preview string
		text    string
	)
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List or preview narration voices",
		Long: `Voices lists the configured synthesis provider's catalogue followed by
the voices installed on the host speech engine. Either source may be absent.

With --preview, a short sample is synthesized with the given provider voice ID
and streamed to the system audio player as it arrives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, closer, err := a.buildTTS()
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}

			if preview != "" {
				if provider == nil {
					return fmt.Errorf("--preview needs a synthesis provider; none configured")
				}
				return a.previewVoice(cmd.Context(), provider, preview, text)
			}
			return a.listVoices(cmd, provider)
		},
	}
	cmd.Flags().StringVar(&preview, "preview", "", "synthesize a sample with this voice ID and play it")
	cmd.Flags().StringVar(&text, "text", "Take a slow breath in, and let it go.", "sample text for --preview")
	return cmd
}

func (a *app) listVoices(cmd *cobra.Command, provider tts.Provider) error {
	w := cmd.OutOrStdout()

	if provider != nil {
		voices, err := provider.ListVoices(cmd.Context())
		if err != nil {
			return fmt.Errorf("list %s voices: %w", a.cfg.TTS.Provider, err)
		}
		fmt.Fprintf(w, "%s (%d voices)\n", a.cfg.TTS.Provider, len(voices))
		for _, v := range voices {
			mark := " "
			if v.Recommended {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s %-28s %-16s %s\n", mark, v.ID, v.Name, v.Traits)
		}
	} else {
		fmt.Fprintln(w, "no synthesis provider configured")
	}

	sp := speaker.NewESpeak()
	if !sp.Available() {
		fmt.Fprintln(w, "host speech engine not available (espeak-ng not on PATH)")
		return nil
	}
	hostVoices, err := sp.Voices(cmd.Context())
	if err != nil {
		return fmt.Errorf("list host voices: %w", err)
	}
	fmt.Fprintf(w, "host (%d voices)\n", len(hostVoices))
	for _, v := range hostVoices {
		fmt.Fprintf(w, "    %-28s %-16s %s\n", v.ID, v.Name, v.Language)
	}
	return nil
}

// previewVoice streams a synthesis sample straight to the system player at
// the provider's native rate, upmixing mono to stereo per chunk.
func (a *app) previewVoice(ctx context.Context, provider tts.Provider, voiceID, text string) error {
	format := provider.Format()
	name, args, ok := audio.PlayerCommand(format.SampleRate)
	if !ok {
		return fmt.Errorf("no raw PCM player found (aplay or ffplay required)")
	}
	sink := audio.NewExecSink(name, args...)
	if err := sink.Start(); err != nil {
		return err
	}
	defer sink.Close()

	ch, err := provider.SynthesizeStream(ctx, text, voiceID)
	if err != nil {
		return fmt.Errorf("preview %q: %w", voiceID, err)
	}
	for chunk := range ch {
		buf := &audio.Buffer{
			Data:       audio.BytesToSamples(chunk),
			SampleRate: format.SampleRate,
			Channels:   format.Channels,
		}
		stereo, err := audio.Convert(buf, audio.Format{SampleRate: format.SampleRate, Channels: 2})
		if err != nil {
			go audio.Drain(ch)
			return err
		}
		if err := sink.WriteFrame(stereo.Data); err != nil {
			go audio.Drain(ch)
			return err
		}
	}
	return nil
}
