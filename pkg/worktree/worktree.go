// Package worktree keeps the user-visible files of a repository in sync with
// a stored tree snapshot.
//
// All access goes through a billy.Filesystem rooted at the repository root,
// so paths handled here are always repository-relative with forward slashes.
package worktree

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/odvcencio/mygit/pkg/object"
)

// ErrUnsafePath is returned for tree paths that would escape the root or
// write into the metadata directory.
var ErrUnsafePath = errors.New("unsafe path")

// BlobReader resolves blob hashes to file content.
type BlobReader interface {
	Get(h object.Hash) ([]byte, error)
}

// Synchronizer clears and rewrites the working tree.
type Synchronizer struct {
	fs        billy.Filesystem
	metaDir   string
	protected map[string]struct{}
	logger    *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithProtected marks repository-relative paths that Clear must leave alone.
// Empty paths and paths outside the root are ignored.
func WithProtected(paths ...string) Option {
	return func(s *Synchronizer) {
		for _, p := range paths {
			p = path.Clean(strings.TrimPrefix(p, "./"))
			if p == "" || p == "." || p == ".." || strings.HasPrefix(p, "../") || path.IsAbs(p) {
				continue
			}
			s.protected[p] = struct{}{}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps fsys. metaDir is the name of the repository metadata directory;
// entries with that name are never touched.
func New(fsys billy.Filesystem, metaDir string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fs:        fsys,
		metaDir:   metaDir,
		protected: make(map[string]struct{}),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS returns a Synchronizer over the host directory root.
func NewOS(root, metaDir string, opts ...Option) *Synchronizer {
	return New(osfs.New(root), metaDir, opts...)
}

// Filesystem exposes the underlying filesystem.
func (s *Synchronizer) Filesystem() billy.Filesystem {
	return s.fs
}

// IsProtected reports whether rel is a protected path.
func (s *Synchronizer) IsProtected(rel string) bool {
	_, ok := s.protected[rel]
	return ok
}

// Skipped reports whether rel is the metadata directory (or lies inside one)
// or is a protected path. Walks and Clear ignore such paths.
func (s *Synchronizer) Skipped(rel string) bool {
	if s.IsProtected(rel) {
		return true
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == s.metaDir {
			return true
		}
	}
	return false
}

// Clear removes every entry under the root except the metadata directory and
// protected paths. A directory holding a protected path is emptied around it
// rather than removed.
func (s *Synchronizer) Clear() error {
	if err := s.clearDir(""); err != nil {
		return fmt.Errorf("clear worktree: %w", err)
	}
	return nil
}

func (s *Synchronizer) clearDir(dir string) error {
	entries, err := s.fs.ReadDir(dirOrRoot(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		rel := path.Join(dir, e.Name())
		if s.Skipped(rel) {
			continue
		}
		if e.IsDir() && s.HoldsProtected(rel) {
			if err := s.clearDir(rel); err != nil {
				return err
			}
			continue
		}
		if err := util.RemoveAll(s.fs, rel); err != nil {
			return err
		}
	}
	return nil
}

// HoldsProtected reports whether dir contains a protected path.
func (s *Synchronizer) HoldsProtected(dir string) bool {
	prefix := dir + "/"
	for p := range s.protected {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Materialize replaces the working tree with tree. Every path is validated
// and every blob is read before the first file is removed, so a bad tree
// leaves the working tree untouched.
func (s *Synchronizer) Materialize(tree object.Tree, blobs BlobReader) error {
	if err := s.CheckTree(tree); err != nil {
		return fmt.Errorf("materialize: %w", err)
	}
	paths := tree.Paths()
	contents := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, err := blobs.Get(tree[p])
		if err != nil {
			return fmt.Errorf("materialize %s: %w", p, err)
		}
		contents[p] = data
	}

	if err := s.Clear(); err != nil {
		return fmt.Errorf("materialize: %w", err)
	}

	for _, p := range paths {
		if dir := path.Dir(p); dir != "." {
			if err := s.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("materialize %s: %w", p, err)
			}
		}
		if err := util.WriteFile(s.fs, p, contents[p], 0o644); err != nil {
			return fmt.Errorf("materialize %s: %w", p, err)
		}
	}
	s.logger.Debug("worktree materialized", "files", len(paths))
	return nil
}

// CheckTree reports whether tree can be written under the root: every path
// passes CheckPath and no path is also used as a directory.
func (s *Synchronizer) CheckTree(tree object.Tree) error {
	for _, p := range tree.Paths() {
		if err := s.CheckPath(p); err != nil {
			return err
		}
	}
	if clash := tree.DirConflicts(); len(clash) > 0 {
		return fmt.Errorf("%w: %q is both a file and a directory", ErrUnsafePath, clash[0])
	}
	return nil
}

// CheckPath rejects tree paths that are empty, absolute, contain a ".."
// segment or a line break, or name the metadata directory.
func (s *Synchronizer) CheckPath(p string) error {
	if p == "" || !object.ValidPathChars(p) || path.IsAbs(p) || strings.HasPrefix(p, `\`) || (len(p) > 1 && p[1] == ':') {
		return fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || seg == s.metaDir {
			return fmt.Errorf("%w: %q", ErrUnsafePath, p)
		}
	}
	return nil
}

// Files lists the regular files under dir ("" for the whole tree), sorted,
// as repository-relative paths. Skipped paths are omitted. A dir that is
// itself a file yields just that file.
func (s *Synchronizer) Files(dir string) ([]string, error) {
	var out []string
	if dir != "" {
		info, err := s.fs.Lstat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() && !s.Skipped(dir) {
				out = append(out, dir)
			}
			return out, nil
		}
	}
	if err := s.walk(dir, &out); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *Synchronizer) walk(dir string, out *[]string) error {
	entries, err := s.fs.ReadDir(dirOrRoot(dir))
	if err != nil {
		return err
	}
	for _, e := range entries {
		rel := path.Join(dir, e.Name())
		if s.Skipped(rel) {
			s.logger.Debug("skipping path", "path", rel)
			continue
		}
		switch {
		case e.IsDir():
			if err := s.walk(rel, out); err != nil {
				return err
			}
		case e.Mode().IsRegular():
			*out = append(*out, rel)
		}
	}
	return nil
}

// ReadFile returns the content of the file at rel.
func (s *Synchronizer) ReadFile(rel string) ([]byte, error) {
	return util.ReadFile(s.fs, rel)
}

// Stat returns file info for rel without following a final symlink.
func (s *Synchronizer) Stat(rel string) (os.FileInfo, error) {
	return s.fs.Lstat(rel)
}

// Remove deletes rel; directories are removed with their contents. Empty
// parent directories left behind are pruned up to the root.
func (s *Synchronizer) Remove(rel string) error {
	if err := util.RemoveAll(s.fs, rel); err != nil {
		return err
	}
	s.pruneEmptyParents(path.Dir(rel))
	return nil
}

func (s *Synchronizer) pruneEmptyParents(dir string) {
	for dir != "." && dir != "" && dir != "/" {
		entries, err := s.fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := s.fs.Remove(dir); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}

func dirOrRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
