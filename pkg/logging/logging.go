// Package logging builds the slog.Logger shared by the CLI and the
// repository layer.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/odvcencio/mygit/pkg/config"
)

// ParseLevel maps a config level name onto a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing warnings to console, or everything from debug
// up when verbose is set. When cfg.File is non-empty a rotating file sink
// receives records at cfg.Level as well. The returned closer releases the
// file; it is safe to call when no file is configured.
func New(cfg config.Log, console io.Writer, verbose bool) (*slog.Logger, io.Closer, error) {
	consoleLevel := slog.LevelWarn
	if verbose {
		consoleLevel = slog.LevelDebug
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{
			Level: consoleLevel,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				// Console lines stay short; the file sink keeps timestamps.
				if a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		}),
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		lj := rotatingFile(cfg)
		closer = lj
		handlers = append(handlers, slog.NewTextHandler(lj, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		}))
	}

	return slog.New(&multiHandler{handlers: handlers}), closer, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func rotatingFile(cfg config.Log) *lumberjack.Logger {
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
	}
	if cfg.MaxSizeMB > 0 {
		lj.MaxSize = cfg.MaxSizeMB
	}
	if cfg.MaxBackups > 0 {
		lj.MaxBackups = cfg.MaxBackups
	}
	return lj
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans out log records to every handler that accepts them.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
