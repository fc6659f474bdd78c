package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mygit/pkg/config"
	"github.com/odvcencio/mygit/pkg/logging"
	"github.com/odvcencio/mygit/pkg/repo"
)

var version = "0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds state shared by every subcommand. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// run executes the CLI with args and returns the first error.
func run(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mygit",
		Short:         "A small content-addressed version control system",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr(), a.verbose)
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.closer = cfg, logger, closer
			logger.Debug("config loaded", "path", cfg.Path, "git_dir", cfg.Core.GitDir)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "config.toml", "path to the TOML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(a.newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newAddCmd())
	root.AddCommand(a.newRmCmd())
	root.AddCommand(a.newCommitCmd())
	root.AddCommand(a.newBranchCmd())
	root.AddCommand(a.newCheckoutCmd())
	root.AddCommand(a.newMergeCmd())
	root.AddCommand(a.newStatusCmd())
	root.AddCommand(a.newLogCmd())
	root.AddCommand(a.newReflogCmd())
	return root
}

// open finds the repository containing the working directory.
func (a *app) open() (*repo.Repo, error) {
	return repo.Open(".", a.cfg, repo.WithLogger(a.logger))
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mygit %s\n", version)
		},
	}
}
