package repo

import (
	"fmt"
	"sort"

	"github.com/odvcencio/mygit/pkg/object"
)

// FileStatus represents the state of a file in the working tree or index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in index, not in HEAD tree
	StatusModified                    // content differs between compared areas
	StatusDeleted                     // in HEAD but not in index, or in index but not on disk
	StatusUntracked                   // on disk but not in index
)

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusNew:
		return "new file"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	}
	return fmt.Sprintf("FileStatus(%d)", int(s))
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // index vs HEAD tree
	WorkStatus  FileStatus // working tree vs index
}

// Status compares HEAD's tree, the index and the working tree. Only paths
// with a difference are returned, sorted by path.
func (r *Repo) Status() ([]StatusEntry, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	headTree, err := r.headTree()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	files, err := r.wt.Files("")
	if err != nil {
		return nil, fmt.Errorf("status: walk worktree: %w", err)
	}

	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f] = true
	}

	entries := make(map[string]*StatusEntry)
	entry := func(p string) *StatusEntry {
		e, ok := entries[p]
		if !ok {
			e = &StatusEntry{Path: p}
			entries[p] = e
		}
		return e
	}

	// Index vs HEAD.
	for p, h := range idx {
		base, ok := headTree[p]
		switch {
		case !ok:
			entry(p).IndexStatus = StatusNew
		case base != h:
			entry(p).IndexStatus = StatusModified
		}
	}
	for p := range headTree {
		if _, ok := idx[p]; !ok {
			entry(p).IndexStatus = StatusDeleted
		}
	}

	// Working tree vs index.
	for p, h := range idx {
		if !onDisk[p] {
			entry(p).WorkStatus = StatusDeleted
			continue
		}
		content, err := r.wt.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("status: read %q: %w", p, err)
		}
		if object.HashBytes(content) != h {
			entry(p).WorkStatus = StatusModified
		}
	}
	for _, f := range files {
		if _, ok := idx[f]; !ok {
			entry(f).WorkStatus = StatusUntracked
		}
	}

	out := make([]StatusEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// HasUncommittedChanges reports whether any tracked file differs between
// HEAD, the index and the working tree. Untracked files do not count.
func (r *Repo) HasUncommittedChanges() (bool, error) {
	entries, err := r.Status()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.IndexStatus != StatusClean {
			return true, nil
		}
		if e.WorkStatus == StatusModified || e.WorkStatus == StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

// headTree loads the tree of the commit HEAD resolves to; empty when unborn.
func (r *Repo) headTree() (object.Tree, error) {
	h, err := r.ResolveHead()
	if err != nil {
		return nil, err
	}
	if h == "" {
		return object.Tree{}, nil
	}
	return r.commitTree(h)
}
