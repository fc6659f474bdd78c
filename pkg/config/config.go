// Package config loads the process configuration for mygit from a TOML file.
//
// A Config is built once at startup and handed to the repository layer; it is
// never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory when no
// --config flag is given.
const DefaultFile = "config.toml"

// Config is the full set of tunables.
type Config struct {
	Core     Core     `toml:"core"`
	User     User     `toml:"user"`
	Index    Index    `toml:"index"`
	Checkout Checkout `toml:"checkout"`
	Merge    Merge    `toml:"merge"`
	Log      Log      `toml:"log"`

	// Path is the file the config was loaded from, or "" when defaults are
	// in use because no file existed.
	Path string `toml:"-"`
}

// Core holds repository layout settings.
type Core struct {
	GitDir        string `toml:"git_dir"`
	DefaultBranch string `toml:"default_branch"`
	Compression   string `toml:"compression"`
}

// User is the identity recorded on new commits.
type User struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// Index controls what happens to the staging index around commits and
// checkouts.
type Index struct {
	ResetOnCheckout  bool `toml:"reset_on_checkout"`
	ClearAfterCommit bool `toml:"clear_after_commit"`
}

type Checkout struct {
	RequireClean bool `toml:"require_clean"`
}

type Merge struct {
	FastForward  bool `toml:"fast_forward"`
	FullAncestry bool `toml:"full_ancestry"`
}

// Log configures the file sink. The console sink is controlled by the
// --verbose flag.
type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Core: Core{
			GitDir:        ".mygit",
			DefaultBranch: "main",
			Compression:   "none",
		},
		User: User{
			Name:  "mygit",
			Email: "mygit@localhost",
		},
		Index: Index{
			ResetOnCheckout: true,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  1,
			MaxBackups: 2,
		},
	}
}

// Load reads path on top of Default. A missing file is not an error. Keys the
// schema does not know about are rejected so typos surface immediately.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.Path = abs
	} else {
		cfg.Path = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that toml decoding alone cannot. The default branch
// name is checked by the repository layer, which owns branch naming rules.
func (c *Config) Validate() error {
	gd := c.Core.GitDir
	switch {
	case gd == "", gd == ".", gd == "..":
		return fmt.Errorf("core.git_dir: invalid directory name %q", gd)
	case strings.ContainsAny(gd, `/\`):
		return fmt.Errorf("core.git_dir: %q must be a single directory name", gd)
	}

	switch c.Core.Compression {
	case "none", "zstd":
	default:
		return fmt.Errorf("core.compression: unknown value %q (want none or zstd)", c.Core.Compression)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown value %q", c.Log.Level)
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log: max_size_mb and max_backups must not be negative")
	}
	return nil
}

// Signature formats the configured identity as "Name <email>".
func (c *Config) Signature() string {
	name := strings.TrimSpace(c.User.Name)
	email := strings.TrimSpace(c.User.Email)
	switch {
	case name == "" && email == "":
		return "mygit <mygit@localhost>"
	case email == "":
		return name
	default:
		return fmt.Sprintf("%s <%s>", name, email)
	}
}
