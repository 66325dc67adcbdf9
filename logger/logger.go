// Package logger provides a minimal slog-based logging wrapper.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config describes logger settings.
type Config struct {
	Enabled bool
	Level   string
	Stdout  bool
	File    string
}

// sink is everything the active handler is built from. Before Init runs,
// records go to stderr at info level.
type sink struct {
	cfg      Config
	ready    bool      // Init has run
	file     *os.File  // opened by Init, closed on re-Init
	terminal io.Writer // replaces stdout while set, see Intercept
	active   *slog.Logger
}

var (
	mu  sync.RWMutex
	out = sink{active: slog.New(slog.NewTextHandler(os.Stderr, nil))}
)

// Init applies cfg. Relative log file paths resolve against configDir.
// A disabled config drops every record, including intercepted ones.
func Init(cfg Config, configDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if out.file != nil {
		_ = out.file.Close()
		out.file = nil
	}
	out.cfg = cfg
	out.ready = true

	var openErr error
	if cfg.Enabled && cfg.File != "" {
		f, err := openLogFile(expandPath(cfg.File, configDir))
		if err != nil {
			openErr = err
		} else {
			out.file = f
		}
	}
	out.active = out.build()
	return openErr
}

// Intercept sends terminal output to w instead of stdout (the TUI log
// panel, or stderr when stdout carries program output). The log file keeps
// receiving records.
func Intercept(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out.terminal = w
	out.active = out.build()
}

// Restore undoes Intercept.
func Restore() {
	mu.Lock()
	defer mu.Unlock()
	out.terminal = nil
	out.active = out.build()
}

// build returns the logger for the current sink, or nil when logging is
// disabled. Must be called with mu held.
func (s *sink) build() *slog.Logger {
	if !s.ready {
		w := s.terminal
		if w == nil {
			w = os.Stderr
		}
		return slog.New(slog.NewTextHandler(w, nil))
	}
	if !s.cfg.Enabled {
		return nil
	}

	var writers []io.Writer
	switch {
	case s.terminal != nil:
		writers = append(writers, s.terminal)
	case s.cfg.Stdout:
		writers = append(writers, os.Stdout)
	}
	if s.file != nil {
		writers = append(writers, s.file)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	opts := &slog.HandlerOptions{Level: parseLevel(s.cfg.Level)}
	return slog.New(slog.NewTextHandler(io.MultiWriter(writers...), opts))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { emit(slog.LevelDebug, msg, args) }

// Info logs an info message.
func Info(msg string, args ...any) { emit(slog.LevelInfo, msg, args) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { emit(slog.LevelWarn, msg, args) }

// Error logs an error message.
func Error(msg string, args ...any) { emit(slog.LevelError, msg, args) }

func emit(level slog.Level, msg string, args []any) {
	mu.RLock()
	l := out.active
	mu.RUnlock()
	if l == nil {
		return
	}
	l.Log(context.Background(), level, msg, args...)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		if strings.EqualFold(strings.TrimSpace(level), "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return l
}

func expandPath(path, configDir string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(path) || configDir == "" {
		return path
	}
	return filepath.Join(configDir, path)
}
