// Package cli implements the attune command tree: session playback, offline
// rendering, document validation, voice listing, and cache maintenance.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/internal/config"
)

// app carries state shared by every subcommand: the loaded configuration and
// the logger, both initialised in the root command's PersistentPreRunE.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
}

// NewRootCmd builds the attune command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "attune",
		Short: "Guided-meditation session playback",
		Long: `Attune plays guided-meditation session documents: timed narration
prompts over scheduled ambient sound beds and an optional binaural-beat
track. Narration is synthesized remotely when a provider is configured and
falls back to the host speech facility otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to the YAML configuration file")

	root.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newValidateCmd(a),
		newVoicesCmd(a),
		newCacheCmd(a),
	)
	return root
}

// Execute runs the command tree and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "attune: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgPath == "" {
		a.cfg = config.Default()
	} else {
		cfg, err := config.Load(a.cfgPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file %q not found", a.cfgPath)
			}
			return err
		}
		a.cfg = cfg
	}

	a.log = newLogger(a.cfg.LogLevel)
	slog.SetDefault(a.log)
	return nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
