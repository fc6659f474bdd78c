package repo

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/mygit/pkg/config"
	"github.com/odvcencio/mygit/pkg/object"
	"github.com/odvcencio/mygit/pkg/worktree"
)

// Repo represents an opened mygit repository.
type Repo struct {
	RootDir string         // working directory root
	GitDir  string         // metadata directory, RootDir/<core.git_dir>
	Store   *object.Store  // content-addressed object store
	Config  *config.Config // immutable process configuration
	Logger  *slog.Logger

	executable string
	wt         *worktree.Synchronizer
}

// Option customizes a Repo at Init/Open time.
type Option func(*Repo)

// WithLogger routes repository debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.Logger = l
		}
	}
}

// WithExecutable overrides the path of the running binary, which staging and
// worktree clearing leave alone. Pass "" to protect nothing.
func WithExecutable(path string) Option {
	return func(r *Repo) {
		r.executable = path
	}
}

func newRepo(root, gitDir string, cfg *config.Config, opts []Option) *Repo {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Repo{
		RootDir: root,
		GitDir:  gitDir,
		Config:  cfg,
		Logger:  slog.New(slog.DiscardHandler),
	}
	if exe, err := os.Executable(); err == nil {
		r.executable = exe
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Store = object.NewStore(gitDir,
		object.WithCompression(object.Compression(cfg.Core.Compression)),
		object.WithLogger(r.Logger),
	)
	r.wt = worktree.NewOS(root, cfg.Core.GitDir,
		worktree.WithProtected(r.protectedPaths()...),
		worktree.WithLogger(r.Logger),
	)
	return r
}

// protectedPaths lists files inside the root that must survive a checkout:
// the running binary, the config file and the log file.
func (r *Repo) protectedPaths() []string {
	var out []string
	for _, p := range []string{r.executable, r.Config.Path, r.Config.Log.File} {
		if rel, ok := r.insideRoot(p); ok {
			out = append(out, rel)
		}
	}
	return out
}

// insideRoot converts p to a repository-relative slash path when p lies
// under RootDir.
func (r *Repo) insideRoot(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	root := r.RootDir
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Worktree returns the synchronizer bound to the repository root.
func (r *Repo) Worktree() *worktree.Synchronizer {
	return r.wt
}

func (r *Repo) metaPath(parts ...string) string {
	return filepath.Join(append([]string{r.GitDir}, parts...)...)
}
