package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/odvcencio/mygit/pkg/repo"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			head, err := r.ReadHead()
			if err != nil {
				return err
			}
			tip, err := r.ResolveHead()
			if err != nil {
				return err
			}
			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)

			switch {
			case head.Detached():
				fmt.Fprintf(out, "HEAD detached at %s\n", st.hash.Render(head.Hash.Short()))
			case tip == "":
				fmt.Fprintf(out, "on %s (no commits yet)\n", st.current.Render(head.Branch))
			default:
				fmt.Fprintf(out, "on %s\n", st.current.Render(head.Branch))
			}

			var staged, unstaged, untracked []string
			for _, e := range entries {
				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, "  + "+st.added.Render(e.Path))
				case repo.StatusModified:
					staged = append(staged, "  ~ "+st.modified.Render(e.Path))
				case repo.StatusDeleted:
					staged = append(staged, "  - "+st.deleted.Render(e.Path))
				}

				switch e.WorkStatus {
				case repo.StatusModified:
					unstaged = append(unstaged, "  ~ "+st.modified.Render(e.Path))
				case repo.StatusDeleted:
					unstaged = append(unstaged, "  - "+st.deleted.Render(e.Path))
				case repo.StatusUntracked:
					untracked = append(untracked, "  "+st.dim.Render(e.Path))
				}
			}

			printGroup(out, st.header, "staged:", staged)
			printGroup(out, st.header, "unstaged:", unstaged)
			printGroup(out, st.header, "untracked:", untracked)
			if len(entries) == 0 && tip != "" {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func printGroup(out io.Writer, header lipgloss.Style, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, header.Render(title))
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}
