package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mygit/pkg/repo"
)

func (a *app) newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			rep, err := r.Merge(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			switch rep.Outcome {
			case repo.MergeUpToDate:
				fmt.Fprintln(out, "already up to date")
			case repo.MergeFastForward:
				fmt.Fprintf(out, "fast-forward %s..%s\n", st.hash.Render(rep.Current.Short()), st.hash.Render(rep.Commit.Short()))
			case repo.MergeCommitted:
				fmt.Fprintf(out, "[%s %s] Merge branch '%s' into '%s'\n", rep.Into, st.hash.Render(rep.Commit.Short()), rep.Branch, rep.Into)
			case repo.MergeConflicted:
				for _, c := range rep.Conflicts {
					if len(c.Ranges) == 0 {
						fmt.Fprintf(out, "%s\n", st.conflict.Render("Merge conflict in "+c.Name))
						continue
					}
					for _, rg := range c.Ranges {
						fmt.Fprintf(out, "%s\n", st.conflict.Render(fmt.Sprintf("Merge conflict in %s: %s", c.Name, rg)))
					}
				}
				return fmt.Errorf("merge %s into %s: %w (%d file(s)); nothing was changed", rep.Branch, rep.Into, repo.ErrConflict, len(rep.Conflicts))
			}
			return nil
		},
	}
}
