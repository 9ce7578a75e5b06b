package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/pkg/provider/tts/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the synthesis cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete all cached synthesis audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := a.cfg.TTS.CacheDir
			if dir == "" {
				return fmt.Errorf("no cache directory configured (tts.cache_dir)")
			}
			n, err := cache.PurgeDir(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached utterances from %s\n", n, dir)
			return nil
		},
	})
	return cmd
}
