package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/mygit/pkg/object"
)

// CheckoutResult describes what Checkout did.
type CheckoutResult struct {
	Head        Head        // HEAD after the checkout
	Commit      object.Hash // commit materialized; "" for an unborn branch
	Created     bool        // a new branch was created
	EmptyBranch bool        // target branch has no commits; worktree left as is
}

// Checkout switches HEAD to target and rewrites the working tree.
//
// A 40-hex target (without create) detaches HEAD at that commit. Anything
// else is a branch name; with create the branch is first created at the
// current HEAD commit. The target commit is verified before HEAD or the
// working tree change, so an unknown hash or branch leaves both untouched.
func (r *Repo) Checkout(target string, create bool) (*CheckoutResult, error) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "ref:") {
		return nil, fmt.Errorf("checkout: %w: %q is a symbolic ref, not a branch or commit", ErrInvalidName, target)
	}

	if object.IsHash(target) && !create {
		return r.checkoutDetached(object.Hash(strings.ToLower(target)))
	}

	if err := ValidateBranchName(target); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := r.ensureCleanForCheckout(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	res := &CheckoutResult{Head: Head{Branch: target}}
	if create {
		if err := r.CreateBranch(target); err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		res.Created = true
	}

	tip, err := r.ReadBranch(target)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	var tree object.Tree
	if tip != "" {
		if tree, err = r.checkoutTree(tip); err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
	}

	if err := r.SetSymbolicHead(target); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if tip == "" {
		res.EmptyBranch = true
		r.Logger.Debug("checked out unborn branch", "branch", target)
		return res, nil
	}
	if err := r.syncTree(tree); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	res.Commit = tip
	return res, nil
}

func (r *Repo) checkoutDetached(h object.Hash) (*CheckoutResult, error) {
	tree, err := r.checkoutTree(h)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := r.ensureCleanForCheckout(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := r.SetDetachedHead(h); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if err := r.syncTree(tree); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return &CheckoutResult{Head: Head{Hash: h}, Commit: h}, nil
}

// Materialize replaces the working tree with the content of a stored tree.
// Everything under the root except the metadata directory and protected
// files is removed first.
func (r *Repo) Materialize(treeHash object.Hash) error {
	tree, err := r.Store.GetTree(treeHash)
	if err != nil {
		return fmt.Errorf("materialize: %w", err)
	}
	return r.wt.Materialize(tree, r.Store)
}

// checkoutTree loads the tree of commit h and checks that it can be written
// to the working tree, so HEAD is never moved to an unwritable snapshot.
func (r *Repo) checkoutTree(h object.Hash) (object.Tree, error) {
	treeHash, err := r.TreeOf(h)
	if err != nil {
		return nil, err
	}
	tree, err := r.Store.GetTree(treeHash)
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", h.Short(), err)
	}
	if err := r.wt.CheckTree(tree); err != nil {
		return nil, fmt.Errorf("tree of %s: %w", h.Short(), err)
	}
	return tree, nil
}

// syncWorktree materializes treeHash and, when index.reset_on_checkout is
// set, makes the index match it.
func (r *Repo) syncWorktree(treeHash object.Hash) error {
	tree, err := r.Store.GetTree(treeHash)
	if err != nil {
		return fmt.Errorf("materialize: %w", err)
	}
	return r.syncTree(tree)
}

func (r *Repo) syncTree(tree object.Tree) error {
	if err := r.wt.Materialize(tree, r.Store); err != nil {
		return err
	}
	if r.Config.Index.ResetOnCheckout {
		if err := r.WriteIndex(Index(tree)); err != nil {
			return err
		}
	}
	return nil
}

// ensureCleanForCheckout enforces checkout.require_clean.
func (r *Repo) ensureCleanForCheckout() error {
	if !r.Config.Checkout.RequireClean {
		return nil
	}
	dirty, err := r.HasUncommittedChanges()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w: commit or remove them first", ErrDirtyWorktree)
	}
	return nil
}
