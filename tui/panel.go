// Package tui is the terminal front end of a composition session.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/serifu/playback"
	"github.com/linanwx/serifu/session"
)

// Panel is a composable TUI region with its own state, update logic, and view.
// The root App model orchestrates panels without knowing their internals.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// FrameMsg carries one playback frame for an assistant turn.
type FrameMsg struct {
	Turn  int
	Frame playback.Frame
}

// TransitionMsg reports a session state change.
type TransitionMsg struct{ Transition session.Transition }

// SnapshotMsg asks panels to redraw from fresh session state.
type SnapshotMsg struct{ Snapshot session.Snapshot }

// dispatchDoneMsg is emitted when a submission cycle ends.
type dispatchDoneMsg struct{ err error }
