package object

import (
	"sort"
	"strings"
)

// Hash is a 40-character hex-encoded SHA-1 digest.
type Hash string

// Short returns the first 8 characters of h, or h itself when shorter.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// Tree is a flat snapshot mapping repository-relative paths (forward
// slashes) to blob hashes.
type Tree map[string]Hash

// Paths returns the tree's paths in canonical (byte-sorted) order.
func (t Tree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a shallow copy of t.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for p, h := range t {
		out[p] = h
	}
	return out
}

// DirConflicts returns, sorted, the paths that another entry also uses as a
// directory, such as "x" when "x/y" is present. A tree with any of them
// cannot be written to a filesystem.
func (t Tree) DirConflicts() []string {
	var out []string
	for _, p := range t.Paths() {
		for i := 0; i < len(p); i++ {
			if p[i] != '/' {
				continue
			}
			if _, ok := t[p[:i]]; ok {
				out = append(out, p[:i])
			}
		}
	}
	if len(out) < 2 {
		return out
	}
	sort.Strings(out)
	uniq := out[:1]
	for _, p := range out[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	return uniq
}

// ValidPathChars reports whether p can be stored in a line-oriented
// ledger: no newline or carriage return.
func ValidPathChars(p string) bool {
	return !strings.ContainsAny(p, "\r\n")
}

// Commit links a tree to zero, one, or two parent commits.
type Commit struct {
	TreeHash  Hash
	Parents   []Hash // first parent is the branch the commit was made on
	Author    string
	Committer string
	Message   string
}

// FirstParent returns the first parent hash, or "" for a root commit.
func (c *Commit) FirstParent() Hash {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// IsMerge reports whether c has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}
