package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/serifu/conversation"
	"github.com/linanwx/serifu/playback"
	"github.com/mattn/go-runewidth"
)

var (
	userMsgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	fadingStyle    = lipgloss.NewStyle().Faint(true)
	assistantStyle = lipgloss.NewStyle()
)

// ChatPanel renders the conversation log, revealing the playing turn from
// its latest frame.
type ChatPanel struct {
	viewport viewport.Model
	turns    []conversation.Turn
	playing  int
	frame    *playback.Frame
}

func NewChatPanel() *ChatPanel {
	return &ChatPanel{viewport: viewport.New(0, 0), playing: -1}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		p.turns = msg.Snapshot.Turns
		if msg.Snapshot.PlaybackTurn != p.playing {
			p.playing = msg.Snapshot.PlaybackTurn
			p.frame = nil
		}
		p.refresh()
		return p, nil
	case FrameMsg:
		if msg.Turn == p.playing {
			f := msg.Frame
			p.frame = &f
			p.refresh()
		}
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) refresh() {
	lines := make([]string, 0, len(p.turns))
	for i, t := range p.turns {
		switch {
		case t.Kind == conversation.KindUser:
			lines = append(lines, userMsgStyle.Render(quoteSegments(t.Segments)))
		case i == p.playing:
			lines = append(lines, renderReveal(t.Text, p.frame))
		default:
			lines = append(lines, assistantStyle.Render(t.Text))
		}
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()
}

func (p *ChatPanel) View() string { return p.viewport.View() }

func (p *ChatPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.refresh()
}

// quoteSegments wraps each segment in 「」.
func quoteSegments(segments []string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("「")
		b.WriteString(s)
		b.WriteString("」")
	}
	return b.String()
}

// renderReveal draws text as of frame. Hidden characters keep their cell
// width so the line does not reflow while it reveals. A nil frame means
// playback has not started.
func renderReveal(text string, frame *playback.Frame) string {
	units := playback.NewTimeline(text, playback.Options{}).Units()
	var b strings.Builder
	for _, u := range units {
		if u.Break {
			b.WriteByte('\n')
			continue
		}
		var prog playback.Progress
		if frame != nil && u.Order < len(frame.Units) {
			prog = frame.Units[u.Order]
		}
		ch := string(u.Char)
		switch {
		case !prog.Visible():
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(u.Char)))
		case !prog.Complete():
			b.WriteString(fadingStyle.Render(ch))
		default:
			b.WriteString(ch)
		}
	}
	out := b.String()
	if frame == nil || !frame.Block.Complete() {
		return fadingStyle.Render(out)
	}
	return out
}
