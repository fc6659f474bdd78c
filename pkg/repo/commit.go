package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/mygit/pkg/object"
)

// Commit creates a new commit from the staging area.
//
//  1. Snapshot the index into a tree and store it
//  2. Resolve HEAD to get the parent commit (none on an unborn branch)
//  3. Store the commit with 0 or 1 parents
//  4. Advance the current branch, or HEAD itself when detached, with a
//     compare-and-swap against the parent
//  5. Clear the index when index.clear_after_commit is set
func (r *Repo) Commit(message string) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: empty commit message")
	}

	tree, err := r.Snapshot()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	treeHash, err := r.Store.PutTree(tree)
	if err != nil {
		return "", fmt.Errorf("commit: write tree: %w", err)
	}

	head, err := r.ReadHead()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	parent, err := r.resolve(head)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	sig := r.Config.Signature()
	c := &object.Commit{
		TreeHash:  treeHash,
		Author:    sig,
		Committer: sig,
		Message:   message,
	}
	if parent != "" {
		c.Parents = []object.Hash{parent}
	}
	commitHash, err := r.Store.PutCommit(c)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	if err := r.advanceHead(head, parent, commitHash, "commit: "+firstLine(message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if r.Config.Index.ClearAfterCommit {
		if err := r.WriteIndex(Index{}); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
	}

	r.Logger.Debug("commit created", "hash", commitHash, "tree", treeHash, "parent", parent, "head", head.String())
	return commitHash, nil
}

// TreeOf returns the tree hash recorded in a commit.
func (r *Repo) TreeOf(h object.Hash) (object.Hash, error) {
	c, err := r.Store.GetCommit(h)
	if err != nil {
		return "", fmt.Errorf("tree of %s: %w", h.Short(), err)
	}
	return c.TreeHash, nil
}

// CreateMergeCommit stores a commit with exactly two parents: current (the
// branch being merged into) then target. Refs are not moved.
func (r *Repo) CreateMergeCommit(tree, current, target object.Hash, message string) (object.Hash, error) {
	sig := r.Config.Signature()
	h, err := r.Store.PutCommit(&object.Commit{
		TreeHash:  tree,
		Parents:   []object.Hash{current, target},
		Author:    sig,
		Committer: sig,
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("create merge commit: %w", err)
	}
	return h, nil
}

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks the commit history starting from start, following first-parent
// links, returning up to limit commits newest first. limit <= 0 means no
// limit. The walk stops quietly at a missing commit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var out []LogEntry
	seen := make(map[object.Hash]struct{})
	current := start

	for current != "" && (limit <= 0 || len(out) < limit) {
		if _, ok := seen[current]; ok {
			break
		}
		seen[current] = struct{}{}

		c, err := r.Store.GetCommit(current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current.Short(), err)
		}
		out = append(out, LogEntry{Hash: current, Commit: c})
		current = c.FirstParent()
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
