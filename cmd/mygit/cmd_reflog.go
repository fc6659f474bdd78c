package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show ref update history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			for _, e := range entries {
				sha := "(unborn)"
				if e.NewHash != "" {
					sha = e.NewHash.Short()
				}
				ts := e.Time().UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%s %s %s %s\n", st.hash.Render(sha), st.dim.Render(ts), e.Ref, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries to show")
	return cmd
}
