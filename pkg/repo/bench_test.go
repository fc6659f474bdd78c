package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/mygit/pkg/config"
	"github.com/odvcencio/mygit/pkg/object"
)

var benchmarkStatusEntrySink int

func seedBenchRepo(b *testing.B, fileCount int) *Repo {
	b.Helper()
	dir := b.TempDir()
	r, err := Init(dir, config.Default(), WithExecutable(""))
	if err != nil {
		b.Fatalf("Init: %v", err)
	}
	for i := 0; i < fileCount; i++ {
		relPath := fmt.Sprintf("bench/file-%03d.txt", i)
		absPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			b.Fatalf("MkdirAll(%q): %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte("line 1\nline 2\n"), 0o644); err != nil {
			b.Fatalf("WriteFile(%q): %v", relPath, err)
		}
	}
	if _, err := r.Stage(dir); err != nil {
		b.Fatalf("Stage: %v", err)
	}
	if _, err := r.Commit("seed"); err != nil {
		b.Fatalf("Commit: %v", err)
	}
	return r
}

func BenchmarkStatus_Clean(b *testing.B) {
	r := seedBenchRepo(b, 200)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries, err := r.Status()
		if err != nil {
			b.Fatalf("Status: %v", err)
		}
		benchmarkStatusEntrySink = len(entries)
	}
}

func BenchmarkMergeBase_LongChain(b *testing.B) {
	r := seedBenchRepo(b, 1)
	root, err := r.ResolveHead()
	if err != nil {
		b.Fatalf("ResolveHead: %v", err)
	}
	tree, err := r.TreeOf(root)
	if err != nil {
		b.Fatalf("TreeOf: %v", err)
	}

	tip := root
	for i := 0; i < 500; i++ {
		tip, err = r.Store.PutCommit(&object.Commit{
			TreeHash: tree,
			Parents:  []object.Hash{tip},
			Message:  fmt.Sprintf("c%d", i),
		})
		if err != nil {
			b.Fatalf("PutCommit: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		base, ok, err := r.MergeBase(tip, root)
		if err != nil || !ok || base != root {
			b.Fatalf("MergeBase = %s,%v,%v", base, ok, err)
		}
	}
}
