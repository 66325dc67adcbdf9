package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linanwx/serifu/compose"
	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/session"
	"github.com/mattn/go-runewidth"
)

const (
	pendingIndicator = "執筆中・・・"
	openQuote        = "「"
	closeQuote       = "」"
)

var (
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lockedStyle  = lipgloss.NewStyle().Faint(true)
)

// Composer edits the segments of the in-progress line through the session
// controller. It mirrors controller state into one textinput per segment.
type Composer struct {
	ctrl        *session.Controller
	placeholder string
	inputs      []textinput.Model
	focus       int
	state       session.State
	locked      bool
	width       int
}

// NewComposer creates a composer bound to ctrl.
func NewComposer(ctrl *session.Controller, placeholder string) *Composer {
	c := &Composer{ctrl: ctrl, placeholder: placeholder}
	c.sync(ctrl.Snapshot())
	c.applyIntents()
	return c
}

// Focused returns the index of the focused segment.
func (c *Composer) Focused() int { return c.focus }

func (c *Composer) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		c.sync(msg.Snapshot)
		return c, c.applyIntents()
	case tea.KeyMsg:
		if c.locked {
			return c, nil
		}
		return c, c.handleKey(msg)
	}
	if len(c.inputs) == 0 {
		return c, nil
	}
	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	return c, cmd
}

func (c *Composer) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		c.report(c.ctrl.SubmitOnEnter(c.focus))
	case tea.KeyTab:
		c.moveFocus(c.focus + 1)
	case tea.KeyShiftTab:
		c.moveFocus(c.focus - 1)
	case tea.KeyBackspace:
		if c.inputs[c.focus].Value() == "" {
			c.report(c.ctrl.DeleteEmptyAtStart(c.focus))
			break
		}
		c.forward(msg)
	default:
		c.forward(msg)
	}
	c.sync(c.ctrl.Snapshot())
	return c.applyIntents()
}

// forward lets the focused textinput handle msg, then commits its value.
func (c *Composer) forward(msg tea.KeyMsg) {
	in, _ := c.inputs[c.focus].Update(msg)
	c.inputs[c.focus] = in
	if err := c.ctrl.Edit(c.focus, in.Value()); err != nil {
		logger.Debug("composer edit rejected", "segment", c.focus, "err", err)
	}
}

// moveFocus blurs the current segment and focuses target.
func (c *Composer) moveFocus(target int) {
	if target < 0 || target >= len(c.inputs) {
		return
	}
	c.blur()
	c.focus = target
	c.inputs[c.focus].Focus()
}

// blur takes focus off the focused segment, trimming it to the blur limit.
func (c *Composer) blur() {
	changed, err := c.ctrl.BlurTrim(c.focus)
	c.report(changed, err)
	if changed {
		c.sync(c.ctrl.Snapshot())
	}
	c.inputs[c.focus].Blur()
}

func (c *Composer) report(_ bool, err error) {
	if err != nil {
		logger.Debug("composer action rejected", "segment", c.focus, "err", err)
	}
}

// sync resizes the input list to the session segments and copies values.
func (c *Composer) sync(snap session.Snapshot) {
	c.state = snap.State
	c.locked = snap.Locked
	for len(c.inputs) < len(snap.Segments) {
		c.inputs = append(c.inputs, c.newInput())
	}
	c.inputs = c.inputs[:len(snap.Segments)]
	for i, s := range snap.Segments {
		if c.inputs[i].Value() != s {
			c.inputs[i].SetValue(s)
		}
	}
	if c.focus >= len(c.inputs) {
		c.focus = len(c.inputs) - 1
	}
}

func (c *Composer) newInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = c.placeholder
	return ti
}

// applyIntents executes the pending focus and measure requests. A segment
// losing focus is trimmed, which queues another measure, so it drains until
// nothing is left.
func (c *Composer) applyIntents() tea.Cmd {
	var cmd tea.Cmd
	for intents := c.ctrl.DrainIntents(); len(intents) > 0; intents = c.ctrl.DrainIntents() {
		for _, in := range intents {
			switch in.Kind {
			case compose.IntentFocus:
				if in.Index >= 0 && in.Index < len(c.inputs) && in.Index != c.focus {
					c.blur()
					c.focus = in.Index
				}
			case compose.IntentMeasure:
				c.measure()
			}
		}
	}
	for i := range c.inputs {
		if i == c.focus {
			cmd = c.inputs[i].Focus()
		} else {
			c.inputs[i].Blur()
		}
	}
	return cmd
}

// measure sizes every input to its content, CJK-aware.
func (c *Composer) measure() {
	minWidth := runewidth.StringWidth(c.placeholder)
	for i := range c.inputs {
		c.inputs[i].Width = max(runewidth.StringWidth(c.inputs[i].Value()), minWidth) + 1
	}
}

func (c *Composer) View() string {
	switch c.state {
	case session.StateSubmitting, session.StateAwaitingReply:
		return pendingStyle.Render(pendingIndicator)
	}
	pieces := make([]string, len(c.inputs))
	for i := range c.inputs {
		pieces[i] = openQuote + c.inputs[i].View() + closeQuote
	}
	out := wrapPieces(pieces, c.width)
	if c.locked {
		return lockedStyle.Render(out)
	}
	return out
}

func (c *Composer) SetSize(width, _ int) { c.width = width }

// wrapPieces joins pieces with a space, breaking lines so no line exceeds
// width cells. A width of zero disables wrapping.
func wrapPieces(pieces []string, width int) string {
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, p := range pieces {
		w := lipgloss.Width(p)
		if lineWidth > 0 && width > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(p)
		lineWidth += w
	}
	return strings.Join(append(lines, line.String()), "\n")
}
