package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mygit/pkg/repo"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty mygit repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			gitDir := filepath.Join(abs, a.cfg.Core.GitDir) + string(filepath.Separator)
			out := cmd.OutOrStdout()

			_, err = repo.Init(abs, a.cfg, repo.WithLogger(a.logger))
			if errors.Is(err, repo.ErrAlreadyExists) {
				fmt.Fprintf(out, "mygit repository already exists in %s\n", gitDir)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "initialized empty mygit repository in %s\n", gitDir)
			return nil
		},
	}
}
