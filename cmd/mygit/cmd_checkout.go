package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newCheckoutCmd() *cobra.Command {
	var createBranch bool

	cmd := &cobra.Command{
		Use:   "checkout [-b] <branch|commit>",
		Short: "Switch branches or detach HEAD at a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			res, err := r.Checkout(args[0], createBranch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			switch {
			case res.Head.Detached():
				fmt.Fprintf(out, "HEAD is now at %s\n", st.hash.Render(res.Commit.Short()))
			case res.Created:
				fmt.Fprintf(out, "switched to new branch '%s'\n", st.current.Render(res.Head.Branch))
			default:
				fmt.Fprintf(out, "switched to branch '%s'\n", st.current.Render(res.Head.Branch))
			}
			if res.EmptyBranch {
				fmt.Fprintln(out, st.dim.Render("branch has no commits yet; working tree left as is"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create and switch to a new branch")
	return cmd
}
