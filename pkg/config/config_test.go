package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".mygit", cfg.Core.GitDir)
	assert.Equal(t, "main", cfg.Core.DefaultBranch)
	assert.Equal(t, "none", cfg.Core.Compression)
	assert.True(t, cfg.Index.ResetOnCheckout)
	assert.False(t, cfg.Index.ClearAfterCommit)
	assert.False(t, cfg.Merge.FastForward)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Core, cfg.Core)
	assert.Empty(t, cfg.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[core]
git_dir = ".vcs"
compression = "zstd"

[user]
name = "Ada"
email = "ada@example.com"

[merge]
fast_forward = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ".vcs", cfg.Core.GitDir)
	assert.Equal(t, "main", cfg.Core.DefaultBranch, "unset keys keep defaults")
	assert.Equal(t, "zstd", cfg.Core.Compression)
	assert.True(t, cfg.Merge.FastForward)
	assert.True(t, cfg.Index.ResetOnCheckout)
	assert.Equal(t, "Ada <ada@example.com>", cfg.Signature())
	assert.True(t, filepath.IsAbs(cfg.Path))
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[core]
git_dir = ".mygit"
defualt_branch = "trunk"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core.defualt_branch")
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := writeConfig(t, "[core\ngit_dir = ")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty git dir", func(c *Config) { c.Core.GitDir = "" }, false},
		{"dot git dir", func(c *Config) { c.Core.GitDir = "." }, false},
		{"nested git dir", func(c *Config) { c.Core.GitDir = "a/b" }, false},
		{"unknown compression", func(c *Config) { c.Core.Compression = "gzip" }, false},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"debug level", func(c *Config) { c.Log.Level = "DEBUG" }, true},
		{"negative backups", func(c *Config) { c.Log.MaxBackups = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mygit <mygit@localhost>", cfg.Signature())

	cfg.User = User{}
	assert.Equal(t, "mygit <mygit@localhost>", cfg.Signature())

	cfg.User = User{Name: "solo"}
	assert.Equal(t, "solo", cfg.Signature())
}
