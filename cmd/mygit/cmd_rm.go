package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func (a *app) newRmCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm [-r] <paths...>",
		Short: "Remove files from the working tree and the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			for _, p := range args {
				removed, err := r.Remove(p, recursive)
				if err != nil {
					return err
				}
				if len(removed) == 0 {
					fmt.Fprintf(out, "%s was not staged\n", p)
					continue
				}
				for _, path := range sortedKeys(removed) {
					fmt.Fprintf(out, "rm %s\n", st.deleted.Render(path))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove directories and their contents")
	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
