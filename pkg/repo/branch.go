package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

const maxBranchNameLen = 255

// ValidateBranchName checks name against the branch naming rules. The
// returned error wraps ErrInvalidName.
func ValidateBranchName(name string) error {
	invalid := func(why string) error {
		return fmt.Errorf("%w: branch name %q %s", ErrInvalidName, name, why)
	}
	switch {
	case name == "":
		return invalid("is empty")
	case name == "." || name == "..":
		return invalid("is reserved")
	case len(name) > maxBranchNameLen:
		return invalid(fmt.Sprintf("is longer than %d bytes", maxBranchNameLen))
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return invalid("starts or ends with '/'")
	case strings.Contains(name, "//"):
		return invalid("contains '//'")
	case strings.Contains(name, ".."):
		return invalid("contains '..'")
	case strings.HasSuffix(name, ".lock"):
		return invalid("ends with '.lock'")
	case strings.ContainsAny(name, `~^:?*[\`):
		return invalid(`contains one of ~^:?*[\`)
	}
	for _, c := range name {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return invalid("contains whitespace or control characters")
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "." {
			return invalid("has a '.' path component")
		}
	}
	return nil
}

// CreateBranch creates a branch pointing at the commit HEAD resolves to. On
// an unborn HEAD the new branch is unborn too.
func (r *Repo) CreateBranch(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	target, err := r.ResolveHead()
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := r.updateRef(refUpdate{
		Name:   branchRef(name),
		Hash:   target,
		Reason: "branch: created from " + r.headLabel(),
		Create: true,
	}); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes a branch ref and its reflog. It refuses to delete the
// checked-out branch.
func (r *Repo) DeleteBranch(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch %q: %w", name, ErrIsCurrentBranch)
	}

	headsDir := r.metaPath("refs", "heads")
	refPath := filepath.Join(headsDir, filepath.FromSlash(name))
	if info, err := os.Stat(refPath); err == nil && info.IsDir() {
		return fmt.Errorf("delete branch %q: %w", name, ErrNotFound)
	}
	if err := os.Remove(refPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete branch %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	removeEmptyParents(filepath.Dir(refPath), headsDir)

	logsDir := r.metaPath("logs", "refs", "heads")
	logPath := filepath.Join(logsDir, filepath.FromSlash(name))
	if err := os.Remove(logPath); err == nil {
		removeEmptyParents(filepath.Dir(logPath), logsDir)
	}

	r.Logger.Debug("branch deleted", "branch", name)
	return nil
}

// ListBranches returns every branch name, nested ones included, sorted.
func (r *Repo) ListBranches() ([]string, error) {
	headsDir := r.metaPath("refs", "heads")

	var names []string
	err := filepath.WalkDir(headsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
			return nil
		}
		rel, err := filepath.Rel(headsDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// headLabel names the current HEAD for reflog messages.
func (r *Repo) headLabel() string {
	head, err := r.ReadHead()
	if err != nil {
		return "HEAD"
	}
	return head.String()
}

// removeEmptyParents removes empty directories from dir upward, stopping at
// (and never removing) stop.
func removeEmptyParents(dir, stop string) {
	stop = filepath.Clean(stop)
	for {
		dir = filepath.Clean(dir)
		if dir == stop || !strings.HasPrefix(dir, stop+string(filepath.Separator)) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
