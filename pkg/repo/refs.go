package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/mygit/pkg/object"
)

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second

	headsPrefix = "refs/heads/"
)

// Head is the decoded content of the HEAD file. Exactly one of Branch and
// Hash is set.
type Head struct {
	Branch string      // symbolic: name of the checked-out branch
	Hash   object.Hash // detached: commit HEAD points at
}

// Detached reports whether HEAD holds a commit hash directly.
func (h Head) Detached() bool {
	return h.Branch == ""
}

func (h Head) String() string {
	if h.Detached() {
		return "detached at " + h.Hash.Short()
	}
	return h.Branch
}

func branchRef(name string) string {
	return headsPrefix + name
}

// ReadHead reads and decodes HEAD.
func (r *Repo) ReadHead() (Head, error) {
	data, err := os.ReadFile(r.metaPath("HEAD"))
	if err != nil {
		return Head{}, fmt.Errorf("read HEAD: %w", err)
	}
	return parseHead(strings.TrimSpace(string(data)))
}

func parseHead(content string) (Head, error) {
	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		name, ok := strings.CutPrefix(strings.TrimSpace(target), headsPrefix)
		if !ok || name == "" {
			return Head{}, fmt.Errorf("read HEAD: %w: unsupported symbolic target %q", ErrCorrupt, target)
		}
		return Head{Branch: name}, nil
	}
	if object.IsHash(content) {
		return Head{Hash: object.Hash(strings.ToLower(content))}, nil
	}
	return Head{}, fmt.Errorf("read HEAD: %w: unexpected content %q", ErrCorrupt, content)
}

// SetSymbolicHead points HEAD at the named branch. The branch ref itself is
// not touched and need not exist yet.
func (r *Repo) SetSymbolicHead(branch string) error {
	if err := ValidateBranchName(branch); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	from, _ := r.ResolveHead()

	_, err := r.writeLocked("HEAD", "ref: "+branchRef(branch)+"\n", nil)
	if err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}

	to, _ := r.ResolveHead()
	r.appendReflogQuiet("HEAD", from, to, "checkout: moving to "+branch)
	r.Logger.Debug("HEAD updated", "branch", branch)
	return nil
}

// SetDetachedHead stores h directly in HEAD.
func (r *Repo) SetDetachedHead(h object.Hash) error {
	if !object.IsHash(string(h)) {
		return fmt.Errorf("set HEAD: %w: %q is not a commit hash", ErrInvalidName, h)
	}
	from, _ := r.ResolveHead()
	h = object.Hash(strings.ToLower(string(h)))

	if _, err := r.writeLocked("HEAD", string(h)+"\n", nil); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	r.appendReflogQuiet("HEAD", from, h, "checkout: moving to "+string(h))
	r.Logger.Debug("HEAD updated", "detached", h)
	return nil
}

// CurrentBranch returns the checked-out branch name, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.ReadHead()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	return head.Branch, nil
}

// ResolveHead returns the commit HEAD ultimately points at. An unborn branch
// (missing or empty ref file) resolves to "".
func (r *Repo) ResolveHead() (object.Hash, error) {
	head, err := r.ReadHead()
	if err != nil {
		return "", err
	}
	return r.resolve(head)
}

func (r *Repo) resolve(head Head) (object.Hash, error) {
	if head.Detached() {
		return head.Hash, nil
	}
	h, err := readRefHash(r.metaPath(filepath.FromSlash(branchRef(head.Branch))))
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return h, nil
}

// ReadBranch returns the commit a branch points at; "" for an unborn
// branch. A branch without a ref file yields ErrNotFound.
func (r *Repo) ReadBranch(name string) (object.Hash, error) {
	path := r.metaPath(filepath.FromSlash(branchRef(name)))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("branch %q: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("branch %q: %w", name, err)
	}
	h, err := readRefHash(path)
	if err != nil {
		return "", fmt.Errorf("branch %q: %w", name, err)
	}
	return h, nil
}

// refUpdate describes a single ref write.
type refUpdate struct {
	Name   string       // path under the metadata directory, e.g. "refs/heads/main" or "HEAD"
	Hash   object.Hash  // new value; "" writes an empty (unborn) ref
	Reason string       // reflog message
	Old    *object.Hash // when set, the current value must match
	Create bool         // fail with ErrAlreadyExists if the ref file exists
}

// updateRef writes a ref using lockfile + rename semantics, then appends a
// reflog entry. A reflog failure is logged but does not undo the update.
func (r *Repo) updateRef(u refUpdate) error {
	check := func(old string, exists bool) error {
		if u.Create && exists {
			return fmt.Errorf("%w: ref %s", ErrAlreadyExists, u.Name)
		}
		if u.Old != nil && object.Hash(old) != *u.Old {
			return fmt.Errorf("%w (expected %s, found %s)", ErrRefCASMismatch, *u.Old, old)
		}
		return nil
	}

	content := ""
	if u.Hash != "" {
		content = string(u.Hash) + "\n"
	}
	old, err := r.writeLocked(u.Name, content, check)
	if err != nil {
		return fmt.Errorf("update ref %q: %w", u.Name, err)
	}

	r.appendReflogQuiet(u.Name, object.Hash(old), u.Hash, u.Reason)
	r.Logger.Debug("ref updated", "ref", u.Name, "old", old, "new", u.Hash)
	return nil
}

// advanceHead moves whatever HEAD designates (branch ref or detached HEAD)
// from one commit to another, failing if it no longer points at from.
func (r *Repo) advanceHead(head Head, from, to object.Hash, reason string) error {
	if head.Detached() {
		return r.updateRef(refUpdate{Name: "HEAD", Hash: to, Old: &from, Reason: reason})
	}
	if err := r.updateRef(refUpdate{Name: branchRef(head.Branch), Hash: to, Old: &from, Reason: reason}); err != nil {
		return err
	}
	r.appendReflogQuiet("HEAD", from, to, reason)
	return nil
}

// writeLocked replaces the file at name (relative to the metadata dir)
// while holding name.lock. check, when non-nil, sees the trimmed previous
// content and whether the file existed, and may veto the write. The previous
// content is returned.
func (r *Repo) writeLocked(name, content string, check func(old string, exists bool) error) (string, error) {
	refPath := r.metaPath(filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return "", fmt.Errorf("lock: %w", err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	data, err := os.ReadFile(refPath)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read old value: %w", err)
	}
	old := strings.TrimSpace(string(data))
	if check != nil {
		if err := check(old, exists); err != nil {
			return "", err
		}
	}

	if _, err := lockFile.WriteString(content); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	if err := lockFile.Sync(); err != nil {
		return "", fmt.Errorf("sync: %w", err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return "", fmt.Errorf("close: %w", err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	cleanupLock = false
	return old, nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

// readRefHash reads a ref file. Missing and empty files yield "".
func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", nil
	}
	if !object.IsHash(content) {
		return "", fmt.Errorf("%w: ref %s holds %q", ErrCorrupt, filepath.Base(refPath), content)
	}
	return object.Hash(strings.ToLower(content)), nil
}
