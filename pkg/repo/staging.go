package repo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/mygit/pkg/object"
)

// Index is the staging area: repository-relative path to blob hash. There
// is a single index per repository, shared by all branches.
type Index map[string]object.Hash

// Paths returns the staged paths in sorted order.
func (idx Index) Paths() []string {
	return object.Tree(idx).Paths()
}

func (r *Repo) indexPath() string {
	return r.metaPath("index")
}

// ReadIndex loads the index. A missing file is an empty index.
func (r *Repo) ReadIndex() (Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Index{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	idx := Index{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		h, p, ok := strings.Cut(line, " ")
		if !ok || !object.IsHash(h) || p == "" {
			return nil, fmt.Errorf("read index: line %d: %w: %q", n, ErrCorrupt, line)
		}
		idx[p] = object.Hash(h)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return idx, nil
}

// WriteIndex atomically replaces the index with idx, one "<hash> <path>"
// line per entry, sorted by path.
func (r *Repo) WriteIndex(idx Index) error {
	var buf bytes.Buffer
	for _, p := range idx.Paths() {
		if !object.ValidPathChars(p) {
			return fmt.Errorf("write index: %w: path %q contains a line break", ErrInvalidName, p)
		}
		fmt.Fprintf(&buf, "%s %s\n", idx[p], p)
	}
	if err := writeFileAtomic(r.indexPath(), buf.Bytes()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Stage records the current content of path. A file is stored as a blob and
// upserted; a directory is walked recursively, skipping the metadata
// directory and protected files. "." stages the whole working tree. It
// returns the staged repository-relative paths.
func (r *Repo) Stage(path string) ([]string, error) {
	rel, err := r.repoRelPath(path)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", path, err)
	}

	if !object.ValidPathChars(rel) {
		return nil, fmt.Errorf("stage %q: %w: path contains a line break", path, ErrInvalidName)
	}

	found, err := r.wt.Files(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stage %q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stage %q: %w", path, err)
	}
	files := found[:0]
	for _, f := range found {
		if !object.ValidPathChars(f) {
			r.Logger.Warn("not staging path with a line break", "path", f)
			continue
		}
		files = append(files, f)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}

	for _, f := range files {
		content, err := r.wt.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("stage: read %q: %w", f, err)
		}
		h, err := r.Store.PutBlob(content)
		if err != nil {
			return nil, fmt.Errorf("stage: write blob %q: %w", f, err)
		}
		idx[f] = h
		r.Logger.Debug("staged", "path", f, "blob", h)
	}

	if len(files) > 0 {
		if err := r.WriteIndex(idx); err != nil {
			return nil, fmt.Errorf("stage: %w", err)
		}
	}
	return files, nil
}

// Unstage removes path from the index. With recursive, every entry at or
// under path is removed, and "." removes everything. The removed entries
// are returned; an empty map means nothing was staged there.
func (r *Repo) Unstage(path string, recursive bool) (map[string]object.Hash, error) {
	rel, err := r.repoRelPath(path)
	if err != nil {
		return nil, fmt.Errorf("unstage %q: %w", path, err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("unstage: %w", err)
	}

	removed := make(map[string]object.Hash)
	for p, h := range idx {
		if matchesPath(p, rel, recursive) {
			removed[p] = h
			delete(idx, p)
		}
	}
	if len(removed) == 0 {
		return removed, nil
	}

	if err := r.WriteIndex(idx); err != nil {
		return nil, fmt.Errorf("unstage: %w", err)
	}
	r.Logger.Debug("unstaged", "path", rel, "entries", len(removed))
	return removed, nil
}

func matchesPath(entry, rel string, recursive bool) bool {
	if entry == rel {
		return true
	}
	if !recursive {
		return false
	}
	return rel == "" || strings.HasPrefix(entry, rel+"/")
}

// Remove deletes path from the working tree (directories only with
// recursive) and unstages it. A path that is neither on disk nor staged is
// a no-op. The unstaged entries are returned.
func (r *Repo) Remove(path string, recursive bool) (map[string]object.Hash, error) {
	rel, err := r.repoRelPath(path)
	if err != nil {
		return nil, fmt.Errorf("rm %q: %w", path, err)
	}
	if rel == "" {
		return nil, fmt.Errorf("rm %q: refusing to remove the repository root", path)
	}
	if r.wt.Skipped(rel) || r.wt.HoldsProtected(rel) {
		return nil, fmt.Errorf("rm %q: %w: protected path", path, ErrInvalidName)
	}

	info, err := r.wt.Stat(rel)
	switch {
	case err == nil:
		if info.IsDir() && !recursive {
			return nil, fmt.Errorf("rm %q: is a directory (use recursive removal)", path)
		}
		if err := r.wt.Remove(rel); err != nil {
			return nil, fmt.Errorf("rm %q: %w", path, err)
		}
		r.Logger.Debug("removed from worktree", "path", rel)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("rm %q: %w", path, err)
	}

	return r.Unstage(rel, recursive)
}

// Snapshot returns the staged entries whose working-tree file still exists.
// Entries for files deleted without an explicit unstage are dropped.
func (r *Repo) Snapshot() (object.Tree, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	tree := make(object.Tree, len(idx))
	for _, p := range idx.Paths() {
		info, err := r.wt.Stat(p)
		if err != nil || info.IsDir() {
			r.Logger.Debug("dropping index entry without a file", "path", p)
			continue
		}
		tree[p] = idx[p]
	}
	return tree, nil
}

// repoRelPath converts a path (absolute, or relative to the working
// directory) into a slash-separated path relative to the repository root;
// "" is the root itself. A relative path that resolves outside the
// repository is assumed to be repository-relative already.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, ok := r.insideRoot(p)
		if !ok {
			if filepath.Clean(p) == filepath.Clean(r.RootDir) {
				return "", nil
			}
			return "", fmt.Errorf("%w: %s is outside the repository", ErrNotFound, p)
		}
		return rel, nil
	}

	clean := filepath.ToSlash(filepath.Clean(p))
	cwd, err := os.Getwd()
	if err == nil {
		abs := filepath.Join(cwd, p)
		if filepath.Clean(abs) == filepath.Clean(r.RootDir) {
			return "", nil
		}
		if rel, ok := r.insideRoot(abs); ok {
			return rel, nil
		}
	}

	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s is outside the repository", ErrNotFound, p)
	}
	return clean, nil
}
