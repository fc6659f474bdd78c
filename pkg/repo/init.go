package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/mygit/pkg/config"
)

// Init creates a new repository at path. It creates the metadata directory
// structure: HEAD pointing at the default branch, an empty (unborn) ref for
// that branch, an empty index, objects/, refs/heads/ and logs/. If the
// metadata directory already exists the error wraps ErrAlreadyExists.
func Init(path string, cfg *config.Config, opts ...Option) (*Repo, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := ValidateBranchName(cfg.Core.DefaultBranch); err != nil {
		return nil, fmt.Errorf("init: default branch: %w", err)
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	gitDir := filepath.Join(root, cfg.Core.GitDir)

	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: %w: repository at %s", ErrAlreadyExists, gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	branchRef := filepath.Join(gitDir, "refs", "heads", filepath.FromSlash(cfg.Core.DefaultBranch))
	if err := os.MkdirAll(filepath.Dir(branchRef), 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir refs: %w", err)
	}
	files := []struct {
		path string
		data string
	}{
		{filepath.Join(gitDir, "HEAD"), "ref: refs/heads/" + cfg.Core.DefaultBranch + "\n"},
		{branchRef, ""},
		{filepath.Join(gitDir, "index"), ""},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.data), 0o644); err != nil {
			return nil, fmt.Errorf("init: write %s: %w", filepath.Base(f.path), err)
		}
	}

	r := newRepo(root, gitDir, cfg, opts)
	r.Logger.Debug("repository initialized", "root", root, "branch", cfg.Core.DefaultBranch)
	return r, nil
}

// Open searches upward from path for the metadata directory and opens the
// repository. The error wraps ErrNotRepository when none is found.
func Open(path string, cfg *config.Config, opts ...Option) (*Repo, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, cfg.Core.GitDir)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return newRepo(cur, gitDir, cfg, opts), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: %w (or any parent up to %s)", ErrNotRepository, cur)
		}
		cur = parent
	}
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-tmp-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
