package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/session"
)

const (
	defaultLogRatio = 0.3
	composerHeight  = 3
)

var separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	ctx  context.Context
	ctrl *session.Controller

	logPanel  Panel
	chatPanel Panel
	composer  Panel

	width, height int
	logRatio      float64
}

// NewApp creates the root model. Submissions run under ctx.
func NewApp(ctx context.Context, ctrl *session.Controller, placeholder string) *App {
	return &App{
		ctx:       ctx,
		ctrl:      ctrl,
		logPanel:  NewLogPanel(),
		chatPanel: NewChatPanel(),
		composer:  NewComposer(ctrl, placeholder),
		logRatio:  defaultLogRatio,
	}
}

func (m *App) Init() tea.Cmd {
	return nil
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyCtrlS:
			return m, m.submit()
		}
		p, cmd := m.composer.Update(msg)
		m.composer = p
		cmds = append(cmds, cmd)

	case TransitionMsg:
		cmds = append(cmds, m.broadcastSnapshot())

	case dispatchDoneMsg:
		if msg.err != nil {
			logger.Debug("submission ended with error", "err", msg.err)
		}
		cmds = append(cmds, m.broadcastSnapshot())

	case LogLineMsg:
		p, cmd := m.logPanel.Update(msg)
		m.logPanel = p
		cmds = append(cmds, cmd)

	case FrameMsg:
		p, cmd := m.chatPanel.Update(msg)
		m.chatPanel = p
		cmds = append(cmds, cmd)

	default:
		// Cursor blink and similar go to the composer.
		p, cmd := m.composer.Update(msg)
		m.composer = p
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit locks the session synchronously and dispatches in a command.
func (m *App) submit() tea.Cmd {
	if comp, ok := m.composer.(*Composer); ok && !comp.locked {
		comp.blur()
	}
	p, err := m.ctrl.Begin()
	if err != nil {
		if !errors.Is(err, session.ErrEmptyComposition) {
			logger.Debug("submit rejected", "err", err)
		}
		return nil
	}
	refresh := m.broadcastSnapshot()
	dispatch := func() tea.Msg {
		return dispatchDoneMsg{err: m.ctrl.Dispatch(m.ctx, p)}
	}
	return tea.Batch(refresh, dispatch)
}

func (m *App) broadcastSnapshot() tea.Cmd {
	snap := SnapshotMsg{Snapshot: m.ctrl.Snapshot()}
	chat, c1 := m.chatPanel.Update(snap)
	comp, c2 := m.composer.Update(snap)
	m.chatPanel, m.composer = chat, comp
	return tea.Batch(c1, c2)
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.logPanel.View(),
		sep,
		m.chatPanel.View(),
		sep,
		m.composer.View(),
	)
}

func (m *App) recalcLayout() {
	const sepLines = 2

	usable := max(m.height-composerHeight-sepLines, 2)
	logH := max(int(float64(usable)*m.logRatio), 1)
	chatH := max(usable-logH, 1)

	m.logPanel.SetSize(m.width, logH)
	m.chatPanel.SetSize(m.width, chatH)
	m.composer.SetSize(m.width, composerHeight)
}
