package repo

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/odvcencio/mygit/pkg/object"
)

func TestStage_FileIdempotent(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "a.txt", "hello\n")

	for i := 0; i < 2; i++ {
		staged, err := r.Stage("a.txt")
		if err != nil {
			t.Fatalf("Stage #%d: %v", i, err)
		}
		if !reflect.DeepEqual(staged, []string{"a.txt"}) {
			t.Errorf("Stage #%d returned %v", i, staged)
		}
	}

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(idx) != 1 || idx["a.txt"] != object.HashBytes([]byte("hello\n")) {
		t.Errorf("index = %v", idx)
	}

	data, err := os.ReadFile(filepath.Join(r.GitDir, "index"))
	if err != nil {
		t.Fatalf("read index file: %v", err)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("index file has duplicate lines:\n%s", data)
	}
}

func TestStage_UpdatesChangedContent(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "a.txt", "v1")
	if _, err := r.Stage("a.txt"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	writeFile(t, r, "a.txt", "v2")
	if _, err := r.Stage("a.txt"); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	idx, _ := r.ReadIndex()
	if idx["a.txt"] != object.HashBytes([]byte("v2")) {
		t.Errorf("index entry not updated: %s", idx["a.txt"])
	}
	if !r.Store.Has(object.HashBytes([]byte("v1"))) || !r.Store.Has(object.HashBytes([]byte("v2"))) {
		t.Errorf("both blob versions should be stored")
	}
}

func TestStage_DirectoryRecursive(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "src/main.go", "package main\n")
	writeFile(t, r, "src/util/u.go", "package util\n")
	writeFile(t, r, "top.txt", "top")

	staged, err := r.Stage(r.RootDir)
	if err != nil {
		t.Fatalf("Stage(root): %v", err)
	}
	want := []string{"src/main.go", "src/util/u.go", "top.txt"}
	if !reflect.DeepEqual(staged, want) {
		t.Errorf("staged = %v, want %v", staged, want)
	}
	for _, p := range staged {
		if strings.HasPrefix(p, ".mygit") {
			t.Errorf("metadata path staged: %s", p)
		}
	}
}

func TestStage_SkipsExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "mygit")
	r, err := Init(dir, nil, WithExecutable(exe))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	writeFile(t, r, "mygit", "\x7fELF")
	writeFile(t, r, "a.txt", "a")

	staged, err := r.Stage(".")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if !reflect.DeepEqual(staged, []string{"a.txt"}) {
		t.Errorf("staged = %v, want [a.txt]", staged)
	}
}

func TestStage_Missing(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.Stage("nope.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Stage(nope.txt): err = %v, want ErrNotFound", err)
	}
}

func TestUnstage(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "dir/a.txt", "a")
	writeFile(t, r, "dir/sub/b.txt", "b")
	writeFile(t, r, "dirx.txt", "x")
	if _, err := r.Stage("."); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Non-recursive on a directory matches nothing.
	removed, err := r.Unstage("dir", false)
	if err != nil {
		t.Fatalf("Unstage(dir): %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("non-recursive Unstage(dir) removed %v", removed)
	}

	removed, err = r.Unstage("dir", true)
	if err != nil {
		t.Fatalf("Unstage(dir, recursive): %v", err)
	}
	if len(removed) != 2 || removed["dir/a.txt"] != object.HashBytes([]byte("a")) {
		t.Errorf("removed = %v", removed)
	}

	idx, _ := r.ReadIndex()
	if !reflect.DeepEqual(idx.Paths(), []string{"dirx.txt"}) {
		t.Errorf("index = %v, want only dirx.txt (prefix match must stop at '/')", idx.Paths())
	}

	removed, err = r.Unstage("never-staged.txt", false)
	if err != nil {
		t.Fatalf("Unstage(never-staged): %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("no-op unstage removed %v", removed)
	}
}

func TestUnstage_DotRecursiveClearsAll(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "a", "a")
	writeFile(t, r, "b/c", "c")
	if _, err := r.Stage("."); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	removed, err := r.Unstage(".", true)
	if err != nil {
		t.Fatalf("Unstage: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d entries, want 2", len(removed))
	}
}

func TestRemove(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "a.txt", "a")
	writeFile(t, r, "dir/b.txt", "b")
	if _, err := r.Stage("."); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	removed, err := r.Remove("a.txt", false)
	if err != nil {
		t.Fatalf("Remove(a.txt): %v", err)
	}
	if len(removed) != 1 || fileExists(r, "a.txt") {
		t.Errorf("Remove(a.txt): removed=%v exists=%v", removed, fileExists(r, "a.txt"))
	}

	if _, err := r.Remove("dir", false); err == nil {
		t.Fatal("Remove(dir) without recursive should fail")
	}
	if !fileExists(r, "dir/b.txt") {
		t.Fatal("failed Remove must not delete files")
	}

	if _, err := r.Remove("dir", true); err != nil {
		t.Fatalf("Remove(dir, recursive): %v", err)
	}
	if fileExists(r, "dir") {
		t.Error("dir still on disk")
	}
	idx, _ := r.ReadIndex()
	if len(idx) != 0 {
		t.Errorf("index = %v, want empty", idx)
	}

	removed, err = r.Remove("ghost.txt", false)
	if err != nil || len(removed) != 0 {
		t.Errorf("Remove(ghost): removed=%v err=%v, want no-op", removed, err)
	}
}

func TestRemove_RefusesMetadata(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.Remove(".mygit", true); err == nil {
		t.Fatal("Remove(.mygit) should fail")
	}
	assertDir(t, r.GitDir)
}

func TestSnapshot_DropsMissingFiles(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "keep.txt", "k")
	writeFile(t, r, "gone.txt", "g")
	if _, err := r.Stage("."); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := os.Remove(filepath.Join(r.RootDir, "gone.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	tree, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(tree) != 1 || tree["keep.txt"] != object.HashBytes([]byte("k")) {
		t.Errorf("Snapshot = %v", tree)
	}
}

func TestReadIndex_Corrupt(t *testing.T) {
	r := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(r.GitDir, "index"), []byte("not-a-hash path\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.ReadIndex(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("ReadIndex: err = %v, want ErrCorrupt", err)
	}
}

func TestIndex_PathWithSpaces(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "my notes.txt", "n")
	if _, err := r.Stage("my notes.txt"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if _, ok := idx["my notes.txt"]; !ok {
		t.Errorf("index = %v", idx)
	}
}

func TestStage_RejectsLineBreakPath(t *testing.T) {
	r := initTestRepo(t)
	writeFile(t, r, "a\nb.txt", "weird")
	writeFile(t, r, "ok.txt", "ok")

	if _, err := r.Stage(filepath.Join(r.RootDir, "a\nb.txt")); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Stage(a\\nb.txt): err = %v, want ErrInvalidName", err)
	}

	staged, err := r.Stage(r.RootDir)
	if err != nil {
		t.Fatalf("Stage(root): %v", err)
	}
	if !reflect.DeepEqual(staged, []string{"ok.txt"}) {
		t.Errorf("staged = %q, want [ok.txt]", staged)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex after skipping: %v", err)
	}
	if len(idx) != 1 {
		t.Errorf("index = %v, want only ok.txt", idx)
	}
	if _, err := r.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
}

func TestWriteIndex_RejectsLineBreakPath(t *testing.T) {
	r := initTestRepo(t)
	err := r.WriteIndex(Index{"a\nb": object.HashBytes([]byte("x"))})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
}

func TestRemove_RefusesDirectoryHoldingExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "bin", "mygit")
	if err := os.MkdirAll(filepath.Dir(exe), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(exe, []byte("binary"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := Init(dir, nil, WithExecutable(exe))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	writeFile(t, r, "bin/tool.sh", "echo")

	if _, err := r.Remove("bin", true); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Remove(bin): err = %v, want ErrInvalidName", err)
	}
	assertFileContent(t, exe, "binary")
	assertFileContent(t, filepath.Join(dir, "bin", "tool.sh"), "echo")
}
