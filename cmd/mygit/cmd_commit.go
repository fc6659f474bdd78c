package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record the staged snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := a.open()
			if err != nil {
				return err
			}

			h, err := r.Commit(message)
			if err != nil {
				return err
			}

			label := "HEAD"
			if branch, err := r.CurrentBranch(); err == nil && branch != "" {
				label = branch
			}

			st := newStyles(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", label, st.hash.Render(h.Short()), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
