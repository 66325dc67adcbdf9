package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxLogLines = 500

var logLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// LogPanel shows intercepted log output.
type LogPanel struct {
	viewport viewport.Model
	lines    []string
	maxLines int
}

func NewLogPanel() *LogPanel {
	return &LogPanel{viewport: viewport.New(0, 0), maxLines: defaultMaxLogLines}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	if msg, ok := msg.(LogLineMsg); ok {
		p.lines = append(p.lines, logLineStyle.Render(strings.TrimRight(msg.Line, "\n")))
		if len(p.lines) > p.maxLines {
			p.lines = p.lines[len(p.lines)-p.maxLines:]
		}
		p.viewport.SetContent(strings.Join(p.lines, "\n"))
		p.viewport.GotoBottom()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *LogPanel) View() string { return p.viewport.View() }

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}
