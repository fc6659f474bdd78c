package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/mygit/pkg/object"
)

// zeroHash stands in for an empty ref value in reflog lines.
const zeroHash = "0000000000000000000000000000000000000000"

type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash // "" when the ref was unborn
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

func (e ReflogEntry) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// appendReflogQuiet records a ref move, logging instead of failing: the ref
// update it describes has already happened.
func (r *Repo) appendReflogQuiet(ref string, oldHash, newHash object.Hash, reason string) {
	if err := r.appendReflog(ref, oldHash, newHash, reason); err != nil {
		r.Logger.Warn("reflog append failed", "ref", ref, "err", err)
	}
}

func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	reason = strings.Join(strings.Fields(reason), " ")
	if reason == "" {
		reason = "update"
	}

	logPath := r.metaPath("logs", filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w", err)
	}

	old := string(oldHash)
	if old == "" {
		old = zeroHash
	}
	newVal := string(newHash)
	if newVal == "" {
		newVal = zeroHash
	}
	line := fmt.Sprintf("%s %s %d %s\n", old, newVal, time.Now().Unix(), reason)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns the reflog of ref, newest first. ref may be "HEAD" (or
// ""), a branch name, or a full "refs/..." path. limit <= 0 means no limit.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName, err := reflogRefName(ref)
	if err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	f, err := os.Open(r.metaPath("logs", filepath.FromSlash(refName)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}
	defer f.Close()

	var entries []ReflogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, ReflogEntry{
			Ref:       refName,
			OldHash:   fromReflogHash(parts[0]),
			NewHash:   fromReflogHash(parts[1]),
			Timestamp: ts,
			Reason:    parts[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func fromReflogHash(s string) object.Hash {
	if s == zeroHash {
		return ""
	}
	return object.Hash(s)
}

// reflogRefName maps a user-supplied ref onto its path under logs/. Branch
// names follow the branch rules; full "refs/..." names may not contain
// empty, "." or ".." segments.
func reflogRefName(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == "HEAD":
		return "HEAD", nil
	case strings.HasPrefix(ref, headsPrefix):
		if err := ValidateBranchName(strings.TrimPrefix(ref, headsPrefix)); err != nil {
			return "", err
		}
		return ref, nil
	case strings.HasPrefix(ref, "refs/"):
		for _, seg := range strings.Split(ref, "/") {
			if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `\:`) {
				return "", fmt.Errorf("%w: ref %q", ErrInvalidName, ref)
			}
		}
		return ref, nil
	}
	if err := ValidateBranchName(ref); err != nil {
		return "", err
	}
	return branchRef(ref), nil
}
