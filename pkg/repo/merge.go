package repo

import (
	"fmt"

	"github.com/odvcencio/mygit/pkg/merge"
	"github.com/odvcencio/mygit/pkg/object"
)

// MergeOutcome classifies the result of Merge.
type MergeOutcome int

const (
	MergeUpToDate    MergeOutcome = iota // nothing to do; no writes
	MergeConflicted                      // conflicts found; no state changed
	MergeCommitted                       // merge commit created and checked out
	MergeFastForward                     // ref moved to the target (merge.fast_forward)
)

func (o MergeOutcome) String() string {
	switch o {
	case MergeUpToDate:
		return "up-to-date"
	case MergeConflicted:
		return "conflicted"
	case MergeCommitted:
		return "committed"
	case MergeFastForward:
		return "fast-forward"
	}
	return fmt.Sprintf("MergeOutcome(%d)", int(o))
}

// MergeReport is the overall result of a repository-level merge.
type MergeReport struct {
	Outcome   MergeOutcome
	Branch    string      // branch merged in
	Into      string      // current branch, or the short hash when detached
	Current   object.Hash // tip before the merge
	Target    object.Hash // tip of Branch
	Base      object.Hash // merge base; "" for independent histories
	Commit    object.Hash // merge commit (or new tip after fast-forward)
	Files     []merge.FileReport
	Conflicts []merge.FileConflict
}

// Merge merges branch into the current HEAD.
//
//  1. Resolve both tips; equal tips are already up to date
//  2. Find the merge base (empty tree when there is none)
//  3. Three-way merge the trees; any conflict stops here with no writes
//  4. Store the tree and a two-parent merge commit, advance HEAD's ref
//     with a compare-and-swap, and materialize the result
func (r *Repo) Merge(branch string) (*MergeReport, error) {
	if err := ValidateBranchName(branch); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	head, err := r.ReadHead()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	current, err := r.resolve(head)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	target, err := r.ReadBranch(branch)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	into := head.Branch
	if head.Detached() {
		into = head.Hash.Short()
	}
	rep := &MergeReport{Branch: branch, Into: into, Current: current, Target: target}

	if current == "" || target == "" {
		return nil, fmt.Errorf("merge %s into %s: %w", branch, into, ErrNothingCommitted)
	}
	if current == target {
		rep.Outcome = MergeUpToDate
		return rep, nil
	}

	base, found, err := r.MergeBase(current, target)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if found {
		rep.Base = base
	}

	if r.Config.Merge.FastForward && found {
		switch base {
		case target:
			rep.Outcome = MergeUpToDate
			return rep, nil
		case current:
			return r.fastForward(head, rep)
		}
	}

	baseTree := object.Tree{}
	if found {
		if baseTree, err = r.commitTree(base); err != nil {
			return nil, fmt.Errorf("merge: base: %w", err)
		}
	}
	currentTree, err := r.commitTree(current)
	if err != nil {
		return nil, fmt.Errorf("merge: current: %w", err)
	}
	targetTree, err := r.commitTree(target)
	if err != nil {
		return nil, fmt.Errorf("merge: target: %w", err)
	}

	res, err := merge.Trees(baseTree, currentTree, targetTree, r.Store)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	rep.Files = res.Files
	for _, f := range res.Files {
		r.Logger.Debug("merge classified", "path", f.Path, "action", f.Action)
	}
	if !res.Clean() {
		rep.Outcome = MergeConflicted
		rep.Conflicts = res.Conflicts
		return rep, nil
	}

	if err := r.wt.CheckTree(res.Tree); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	treeHash, err := r.Store.PutTree(res.Tree)
	if err != nil {
		return nil, fmt.Errorf("merge: write tree: %w", err)
	}
	msg := fmt.Sprintf("Merge branch '%s' into '%s'", branch, into)
	commitHash, err := r.CreateMergeCommit(treeHash, current, target, msg)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.advanceHead(head, current, commitHash, "merge "+branch+": merge commit"); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.syncWorktree(treeHash); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	rep.Outcome = MergeCommitted
	rep.Commit = commitHash
	return rep, nil
}

func (r *Repo) fastForward(head Head, rep *MergeReport) (*MergeReport, error) {
	tree, err := r.checkoutTree(rep.Target)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.advanceHead(head, rep.Current, rep.Target, "merge "+rep.Branch+": fast-forward"); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.syncTree(tree); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	rep.Outcome = MergeFastForward
	rep.Commit = rep.Target
	return rep, nil
}

func (r *Repo) commitTree(h object.Hash) (object.Tree, error) {
	treeHash, err := r.TreeOf(h)
	if err != nil {
		return nil, err
	}
	return r.Store.GetTree(treeHash)
}
