package object

import (
	"bytes"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree as one "blob <hash> <path>\n" line per entry,
// sorted by path so equal entry sets always hash the same.
func MarshalTree(t Tree) []byte {
	var buf bytes.Buffer
	for _, p := range t.Paths() {
		fmt.Fprintf(&buf, "blob %s %s\n", t[p], p)
	}
	return buf.Bytes()
}

// UnmarshalTree parses the line format written by MarshalTree. Paths may
// contain spaces; everything after the hash is the path.
func UnmarshalTree(data []byte) (Tree, error) {
	t := make(Tree)
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		kind, rest, ok := strings.Cut(line, " ")
		if !ok || kind != "blob" {
			return nil, fmt.Errorf("unmarshal tree: line %d: %w: unexpected entry %q", i+1, ErrCorrupt, line)
		}
		h, p, ok := strings.Cut(rest, " ")
		if !ok || !IsHash(h) || p == "" {
			return nil, fmt.Errorf("unmarshal tree: line %d: %w: malformed entry %q", i+1, ErrCorrupt, line)
		}
		t[p] = Hash(h)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree <hash>
//	parent <hash>      (zero, one, or two lines)
//	author <name>
//	committer <name>
//
//	<message>
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a Commit. The tree header is mandatory; a commit
// without one is reported as ErrCorrupt.
func UnmarshalCommit(data []byte) (*Commit, error) {
	text := string(data)
	header, message, found := strings.Cut(text, "\n\n")
	if !found {
		header = strings.TrimSuffix(text, "\n")
	}

	c := &Commit{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "tree":
			c.TreeHash = Hash(strings.TrimSpace(val))
		case "parent":
			c.Parents = append(c.Parents, Hash(strings.TrimSpace(val)))
		case "author":
			c.Author = val
		case "committer":
			c.Committer = val
		}
	}

	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: %w: missing tree", ErrCorrupt)
	}
	return c, nil
}
