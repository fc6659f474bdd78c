package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/odvcencio/mygit/pkg/object"
)

func TestReadHead_Symbolic(t *testing.T) {
	r := initTestRepo(t)

	head, err := r.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if head.Detached() || head.Branch != "main" || head.Hash != "" {
		t.Errorf("ReadHead = %+v, want symbolic main", head)
	}
}

func TestSetDetachedHead(t *testing.T) {
	r := initTestRepo(t)
	c1 := commitFiles(t, r, map[string]string{"a.txt": "a"}, "first")

	if err := r.SetDetachedHead(object.Hash(strings.ToUpper(string(c1)))); err != nil {
		t.Fatalf("SetDetachedHead: %v", err)
	}
	assertFileContent(t, filepath.Join(r.GitDir, "HEAD"), string(c1)+"\n")

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "" {
		t.Errorf("CurrentBranch while detached = %q, want empty", branch)
	}
	if got := mustResolveHead(t, r); got != c1 {
		t.Errorf("ResolveHead = %s, want %s", got, c1)
	}

	if err := r.SetSymbolicHead("main"); err != nil {
		t.Fatalf("SetSymbolicHead: %v", err)
	}
	assertFileContent(t, filepath.Join(r.GitDir, "HEAD"), "ref: refs/heads/main\n")
}

func TestSetDetachedHead_RejectsNonHash(t *testing.T) {
	r := initTestRepo(t)
	if err := r.SetDetachedHead("main"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("SetDetachedHead(main): err = %v, want ErrInvalidName", err)
	}
}

func TestSetSymbolicHead_InvalidName(t *testing.T) {
	r := initTestRepo(t)
	if err := r.SetSymbolicHead("a b"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("SetSymbolicHead: err = %v, want ErrInvalidName", err)
	}
}

func TestReadHead_Corrupt(t *testing.T) {
	r := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(r.GitDir, "HEAD"), []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.ReadHead(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("ReadHead: err = %v, want ErrCorrupt", err)
	}
}

func TestReadBranch(t *testing.T) {
	r := initTestRepo(t)

	h, err := r.ReadBranch("main")
	if err != nil {
		t.Fatalf("ReadBranch(main): %v", err)
	}
	if h != "" {
		t.Errorf("unborn main = %q, want empty", h)
	}

	if _, err := r.ReadBranch("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadBranch(nope): err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRef_CASMismatch(t *testing.T) {
	r := initTestRepo(t)
	c1 := commitFiles(t, r, map[string]string{"a.txt": "a"}, "first")

	stale := object.HashBytes([]byte("stale"))
	err := r.updateRef(refUpdate{Name: "refs/heads/main", Hash: stale, Old: &stale})
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("updateRef: err = %v, want ErrRefCASMismatch", err)
	}
	if got := mustResolveHead(t, r); got != c1 {
		t.Errorf("ref moved after failed CAS: %s", got)
	}
	if _, err := os.Stat(filepath.Join(r.GitDir, "refs", "heads", "main.lock")); !os.IsNotExist(err) {
		t.Errorf("lock file left behind")
	}
}

func TestUpdateRef_ConcurrentSingleWinner(t *testing.T) {
	r := initTestRepo(t)
	base := commitFiles(t, r, map[string]string{"a.txt": "a"}, "base")

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)

	successCh := make(chan object.Hash, workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			next := object.HashBytes([]byte(fmt.Sprintf("next-%d", i)))
			err := r.updateRef(refUpdate{Name: "refs/heads/main", Hash: next, Old: &base})
			if err != nil {
				errCh <- err
				return
			}
			successCh <- next
		}()
	}

	wg.Wait()
	close(successCh)
	close(errCh)

	var winners []object.Hash
	for h := range successCh {
		winners = append(winners, h)
	}
	if len(winners) != 1 {
		t.Fatalf("successful CAS updates = %d, want 1", len(winners))
	}
	for err := range errCh {
		if !errors.Is(err, ErrRefCASMismatch) && !strings.Contains(err.Error(), "timeout waiting for lock") {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if got := mustResolveHead(t, r); got != winners[0] {
		t.Errorf("main = %s, want winner %s", got, winners[0])
	}
}

func TestReflog_RecordsCommitsAndCheckouts(t *testing.T) {
	r := initTestRepo(t)
	c1 := commitFiles(t, r, map[string]string{"a.txt": "a"}, "first")
	c2 := commitFiles(t, r, map[string]string{"a.txt": "b"}, "second\n\nbody")

	entries, err := r.ReadReflog("main", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("reflog entries = %d, want 2", len(entries))
	}
	if entries[0].OldHash != c1 || entries[0].NewHash != c2 || entries[0].Reason != "commit: second" {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].OldHash != "" || entries[1].NewHash != c1 {
		t.Errorf("oldest entry = %+v", entries[1])
	}

	mustCheckout(t, r, string(c1), false)
	head, err := r.ReadReflog("HEAD", 1)
	if err != nil {
		t.Fatalf("ReadReflog(HEAD): %v", err)
	}
	if len(head) != 1 || head[0].NewHash != c1 || !strings.HasPrefix(head[0].Reason, "checkout: moving to") {
		t.Errorf("HEAD reflog = %+v", head)
	}
}

func TestReflog_Missing(t *testing.T) {
	r := initTestRepo(t)
	entries, err := r.ReadReflog("never", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}

func TestReflog_RejectsEscapingRefs(t *testing.T) {
	r := initTestRepo(t)
	for _, ref := range []string{"refs/../../x", "refs/heads/../../../x", "../x", "refs//heads", "a..b"} {
		if _, err := r.ReadReflog(ref, 0); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ReadReflog(%q): err = %v, want ErrInvalidName", ref, err)
		}
	}
}
