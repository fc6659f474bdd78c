package repo

import (
	"errors"

	"github.com/odvcencio/mygit/pkg/object"
)

// Sentinel errors returned (wrapped) by repository operations. Test with
// errors.Is. Filesystem failures are wrapped as-is and surface as
// *fs.PathError.
var (
	ErrNotFound         = object.ErrNotFound
	ErrCorrupt          = object.ErrCorrupt
	ErrInvalidName      = errors.New("invalid name")
	ErrAlreadyExists    = errors.New("already exists")
	ErrConflict         = errors.New("merge conflict")
	ErrIsCurrentBranch  = errors.New("branch is checked out")
	ErrNothingCommitted = errors.New("nothing committed")
	ErrDirtyWorktree    = errors.New("uncommitted changes")
	ErrRefCASMismatch   = errors.New("ref compare-and-swap mismatch")
	ErrNotRepository    = errors.New("not a mygit repository")
)
