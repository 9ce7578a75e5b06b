package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attunelabs/attune/pkg/session"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <session.yaml>",
		Short: "Validate a session document and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", sess.Name, sess.ID)
			if sess.Description != "" {
				fmt.Fprintf(w, "  %s\n", sess.Description)
			}
			fmt.Fprintf(w, "  duration: %.0fs\n", sess.Duration)
			fmt.Fprintf(w, "  prompts:  %d\n", len(sess.Prompts))
			fmt.Fprintf(w, "  ambients: %d\n", len(sess.Ambients))
			if sess.Binaural != nil {
				fmt.Fprintf(w, "  binaural: %s\n", sess.Binaural.Preset)
			}
			for _, s := range sess.Sections {
				fmt.Fprintf(w, "  section %.0f-%.0fs: %s %s\n", s.StartTime, s.EndTime, s.Type, s.Label)
			}
			fmt.Fprintln(w, "ok")
			return nil
		},
	}
}
