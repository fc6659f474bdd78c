package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newBranchCmd() *cobra.Command {
	var deleteBranch bool

	cmd := &cobra.Command{
		Use:   "branch [-d] [name]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if deleteBranch {
				if len(args) != 1 {
					return fmt.Errorf("branch -d requires a branch name")
				}
				if err := r.DeleteBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted branch '%s'\n", args[0])
				return nil
			}

			if len(args) == 1 {
				if err := r.CreateBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "created branch '%s'\n", args[0])
				return nil
			}

			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			current, _ := r.CurrentBranch()

			st := newStyles(out)
			for _, b := range branches {
				if b == current {
					fmt.Fprintf(out, "* %s\n", st.current.Render(b))
				} else {
					fmt.Fprintf(out, "  %s\n", b)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&deleteBranch, "delete", "d", false, "delete the named branch")
	return cmd
}
