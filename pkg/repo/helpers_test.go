package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/mygit/pkg/config"
	"github.com/odvcencio/mygit/pkg/object"
)

// initTestRepo creates a repository in a temp dir. Config tweaks are applied
// to a copy of the defaults before Init.
func initTestRepo(t *testing.T, tweaks ...func(*config.Config)) *Repo {
	t.Helper()
	cfg := config.Default()
	for _, tw := range tweaks {
		tw(cfg)
	}
	r, err := Init(t.TempDir(), cfg, WithExecutable(""))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", rel, err)
	}
}

func readFile(t *testing.T, r *Repo, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", rel, err)
	}
	return string(data)
}

func fileExists(r *Repo, rel string) bool {
	_, err := os.Stat(filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	return err == nil
}

// commitFiles writes and stages files, then commits them.
func commitFiles(t *testing.T, r *Repo, files map[string]string, msg string) object.Hash {
	t.Helper()
	for rel, content := range files {
		writeFile(t, r, rel, content)
		if _, err := r.Stage(filepath.Join(r.RootDir, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("Stage(%s): %v", rel, err)
		}
	}
	h, err := r.Commit(msg)
	if err != nil {
		t.Fatalf("Commit(%q): %v", msg, err)
	}
	return h
}

func mustCheckout(t *testing.T, r *Repo, target string, create bool) *CheckoutResult {
	t.Helper()
	res, err := r.Checkout(target, create)
	if err != nil {
		t.Fatalf("Checkout(%q, %v): %v", target, create, err)
	}
	return res
}

func mustResolveHead(t *testing.T, r *Repo) object.Hash {
	t.Helper()
	h, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	return h
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected directory %s: %v", path, err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %s to be a directory", path)
	}
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("%s = %q, want %q", filepath.Base(path), data, want)
	}
}
