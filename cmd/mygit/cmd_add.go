package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			st := newStyles(cmd.OutOrStdout())
			for _, p := range args {
				staged, err := r.Stage(p)
				if err != nil {
					return err
				}
				for _, f := range staged {
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", st.added.Render(f))
				}
			}
			return nil
		},
	}
}
