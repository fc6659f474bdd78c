package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newLogCmd() *cobra.Command {
	var limit int
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show first-parent commit history from HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			head, err := r.ResolveHead()
			if err != nil {
				return err
			}
			if head == "" {
				return nil
			}

			entries, err := r.Log(head, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			for _, e := range entries {
				c := e.Commit
				if oneline {
					fmt.Fprintf(out, "%s %s\n", st.hash.Render(e.Hash.Short()), firstLine(c.Message))
					continue
				}
				fmt.Fprintf(out, "%s\n", st.hash.Render("commit "+string(e.Hash)))
				if c.IsMerge() {
					fmt.Fprintf(out, "Merge:  %s %s\n", c.Parents[0].Short(), c.Parents[1].Short())
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", c.Message)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits shown")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "one line per commit")
	return cmd
}
