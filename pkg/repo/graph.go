package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/mygit/pkg/object"
)

// AncestorsOf returns h together with every commit reachable from it. By
// default only first parents are followed; merge.full_ancestry switches to
// a breadth-first walk over all parents. The walk ends at root commits and
// at commits missing from the store.
func (r *Repo) AncestorsOf(h object.Hash) (map[object.Hash]struct{}, error) {
	seen := make(map[object.Hash]struct{})
	err := r.walkAncestors(h, func(c object.Hash) bool {
		seen[c] = struct{}{}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ancestors of %s: %w", h.Short(), err)
	}
	return seen, nil
}

// MergeBase returns the nearest commit of b's history (b itself first) that
// is also an ancestor of a. ok is false when the histories share nothing.
func (r *Repo) MergeBase(a, b object.Hash) (base object.Hash, ok bool, err error) {
	ancestors, err := r.AncestorsOf(a)
	if err != nil {
		return "", false, fmt.Errorf("merge base: %w", err)
	}
	err = r.walkAncestors(b, func(c object.Hash) bool {
		if _, hit := ancestors[c]; hit {
			base, ok = c, true
			return false
		}
		return true
	})
	if err != nil {
		return "", false, fmt.Errorf("merge base: %w", err)
	}
	return base, ok, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	found := false
	err := r.walkAncestors(descendant, func(c object.Hash) bool {
		if c == ancestor {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// walkAncestors visits start and its ancestors in walk order, each at most
// once, until visit returns false. Missing commits end their branch of the
// walk; other read errors abort it.
func (r *Repo) walkAncestors(start object.Hash, visit func(object.Hash) bool) error {
	if start == "" {
		return nil
	}
	full := r.Config.Merge.FullAncestry
	seen := map[object.Hash]struct{}{start: {}}
	queue := []object.Hash{start}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if !visit(h) {
			return nil
		}

		c, err := r.Store.GetCommit(h)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}

		parents := c.Parents
		if !full && len(parents) > 1 {
			parents = parents[:1]
		}
		for _, p := range parents {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return nil
}
