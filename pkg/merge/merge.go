// Package merge implements the three-way tree merge used by mygit.
//
// Trees are flat path→blob maps, so the merge classifies each path of the
// union of base, current and target on its own. Only a path edited
// differently on both sides is a conflict; its blobs are then compared line
// by line to localize the disagreement for the report.
package merge

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/mygit/pkg/object"
)

// BlobReader resolves blob hashes to content.
type BlobReader interface {
	Get(h object.Hash) ([]byte, error)
}

// Action says what the merge decided for a single path.
type Action int

const (
	KeepCurrent Action = iota // Current side's entry is kept (unchanged, added, or edited there).
	TakeTarget                // Target side's entry replaces or adds to current.
	Delete                    // Path is dropped from the result.
	Conflict                  // Both sides edited the path differently.
)

func (a Action) String() string {
	switch a {
	case KeepCurrent:
		return "keep"
	case TakeTarget:
		return "take"
	case Delete:
		return "delete"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Range is a 1-based inclusive span of lines.
type Range struct {
	Start, End int
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("[%d-%d]", r.Start, r.End)
}

// FileConflict describes one conflicting path. Name is the base name used in
// user-facing reports; Ranges may be empty when the two versions differ only
// in ways the line scan cannot see, such as a missing final newline.
type FileConflict struct {
	Path   string
	Name   string
	Ranges []Range
}

// FileReport records the decision taken for a path.
type FileReport struct {
	Path   string
	Action Action
}

// Result is the outcome of Trees. Tree is nil when Conflicts is non-empty.
type Result struct {
	Tree      object.Tree
	Files     []FileReport
	Conflicts []FileConflict
}

// Clean reports whether the merge produced a tree.
func (r *Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// Trees merges current and target against their common ancestor base. A nil
// base stands for the empty tree (independent histories). blobs is consulted
// only for conflicting paths.
func Trees(base, current, target object.Tree, blobs BlobReader) (*Result, error) {
	res := &Result{}
	merged := make(object.Tree)

	for _, p := range collectAllPaths(base, current, target) {
		b, inBase := base[p]
		c, inCurrent := current[p]
		t, inTarget := target[p]

		action := classify(b, inBase, c, inCurrent, t, inTarget)
		res.Files = append(res.Files, FileReport{Path: p, Action: action})

		switch action {
		case KeepCurrent:
			merged[p] = c
		case TakeTarget:
			merged[p] = t
		case Conflict:
			fc, err := conflictFor(p, c, t, blobs)
			if err != nil {
				return nil, err
			}
			res.Conflicts = append(res.Conflicts, fc)
		}
	}

	// A file on one side and a directory of the same name on the other
	// merge cleanly path by path but cannot coexist on disk.
	for _, p := range merged.DirConflicts() {
		res.Conflicts = append(res.Conflicts, FileConflict{Path: p, Name: path.Base(p)})
		for i := range res.Files {
			if res.Files[i].Path == p {
				res.Files[i].Action = Conflict
			}
		}
	}

	if len(res.Conflicts) == 0 {
		res.Tree = merged
	}
	return res, nil
}

// classify decides a single path from its presence and hash on each side.
func classify(b object.Hash, inBase bool, c object.Hash, inCurrent bool, t object.Hash, inTarget bool) Action {
	switch {
	case inCurrent && inTarget:
		switch {
		case c == t:
			return KeepCurrent
		case inBase && c == b:
			return TakeTarget
		case inBase && t == b:
			return KeepCurrent
		default:
			return Conflict
		}
	case inCurrent:
		// Deleted in target: an untouched current copy follows the deletion,
		// an edited one survives it.
		if inBase && c == b {
			return Delete
		}
		return KeepCurrent
	case inTarget:
		if inBase && t == b {
			return Delete
		}
		return TakeTarget
	default:
		return Delete
	}
}

func conflictFor(p string, c, t object.Hash, blobs BlobReader) (FileConflict, error) {
	cur, err := blobs.Get(c)
	if err != nil {
		return FileConflict{}, fmt.Errorf("merge %s: read current: %w", p, err)
	}
	tgt, err := blobs.Get(t)
	if err != nil {
		return FileConflict{}, fmt.Errorf("merge %s: read target: %w", p, err)
	}
	return FileConflict{
		Path:   p,
		Name:   path.Base(p),
		Ranges: ConflictRanges(cur, tgt),
	}, nil
}

// ConflictRanges compares two file versions line by line at equal indices
// and returns every maximal run of differing lines. A line missing on one
// side counts as differing.
func ConflictRanges(current, target []byte) []Range {
	a := SplitLines(current)
	b := SplitLines(target)
	n := max(len(a), len(b))

	var out []Range
	for i := 0; i < n; {
		if lineAt(a, i) == lineAt(b, i) {
			i++
			continue
		}
		start := i
		for i < n && lineAt(a, i) != lineAt(b, i) {
			i++
		}
		out = append(out, Range{Start: start + 1, End: i})
	}
	return out
}

type maybeLine struct {
	text string
	ok   bool
}

func lineAt(lines []string, i int) maybeLine {
	if i < len(lines) {
		return maybeLine{lines[i], true}
	}
	return maybeLine{}
}

// SplitLines splits data on '\n', dropping one trailing '\r' per line. A
// final newline does not produce an extra empty line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// collectAllPaths returns the sorted union of paths across the trees.
func collectAllPaths(trees ...object.Tree) []string {
	seen := make(map[string]struct{})
	for _, t := range trees {
		for p := range t {
			seen[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
