package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/serifu/compose"
	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/playback"
	"github.com/linanwx/serifu/session"
)

const logBufferSize = 256

// Config holds what the chat front end needs.
type Config struct {
	Gateway     session.Gateway
	Composer    compose.Options
	Playback    playback.Options
	Placeholder string
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	var program *tea.Program

	ctrl := session.New(session.Options{
		Gateway:  cfg.Gateway,
		Player:   playback.NewAnimator(cfg.Playback, nil),
		Composer: cfg.Composer,
		// Transitions may fire inside Update, where a blocking Send would
		// deadlock the event loop.
		OnTransition: func(tr session.Transition) {
			go program.Send(TransitionMsg{Transition: tr})
		},
		OnFrame: func(turn int, f playback.Frame) {
			program.Send(FrameMsg{Turn: turn, Frame: f})
		},
	})

	app := NewApp(ctx, ctrl, cfg.Placeholder)
	program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	lw := newLogWriter(program)
	logger.Intercept(lw)
	defer func() {
		logger.Restore()
		lw.Close()
	}()

	logger.Info("chat started")
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// logWriter implements io.Writer and forwards each line to the TUI as a
// LogLineMsg. Writes never block because logging also happens inside
// Update; lines are dropped when the buffer is full.
type logWriter struct {
	mu     sync.Mutex
	closed bool
	lines  chan string
	done   chan struct{}
}

func newLogWriter(program *tea.Program) *logWriter {
	w := &logWriter{lines: make(chan string, logBufferSize), done: make(chan struct{})}
	go func() {
		defer close(w.done)
		for line := range w.lines {
			program.Send(LogLineMsg{Line: line})
		}
	}()
	return w
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		select {
		case w.lines <- string(line):
		default:
		}
	}
	return len(p), nil
}

// Close stops forwarding and waits for queued lines to drain.
func (w *logWriter) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
}
