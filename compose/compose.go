// Package compose manages the ordered segments of an in-progress line of
// dialogue.
//
// The manager only records layout intent (focus a segment, re-measure); the
// rendering layer drains those intents after each state change and performs
// focus and sizing itself.
package compose

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLength  = 24
	DefaultTrimMargin = 2
)

// ErrIndexOutOfRange is returned when an operation targets a missing segment.
var ErrIndexOutOfRange = errors.New("segment index out of range")

// IntentKind describes a pending layout action.
type IntentKind int

const (
	// IntentMeasure asks the renderer to re-measure every segment.
	IntentMeasure IntentKind = iota
	// IntentFocus asks the renderer to focus Intent.Index.
	IntentFocus
)

// Intent is a layout action recorded for the rendering layer.
type Intent struct {
	Kind  IntentKind
	Index int
}

// Options configures the length limits of a Manager.
type Options struct {
	MaxLength  int // split threshold in characters
	TrimMargin int // BlurTrim keeps MaxLength - TrimMargin characters
}

// Manager owns the ordered segment list. It always holds at least one
// segment.
type Manager struct {
	maxLength  int
	trimMargin int
	segments   []string
	intents    []Intent
}

// NewManager creates a manager holding one empty segment.
func NewManager(opts Options) *Manager {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.TrimMargin <= 0 || opts.TrimMargin >= opts.MaxLength {
		opts.TrimMargin = DefaultTrimMargin
	}
	return &Manager{
		maxLength:  opts.MaxLength,
		trimMargin: opts.TrimMargin,
		segments:   []string{""},
	}
}

// MaxLength returns the split threshold.
func (m *Manager) MaxLength() int { return m.maxLength }

// Len returns the number of segments.
func (m *Manager) Len() int { return len(m.segments) }

// LastIndex returns the index of the active segment.
func (m *Manager) LastIndex() int { return len(m.segments) - 1 }

// Text returns the text of segment i, or "" when i is out of range.
func (m *Manager) Text(i int) string {
	if i < 0 || i >= len(m.segments) {
		return ""
	}
	return m.segments[i]
}

// Segments returns a copy of every segment text.
func (m *Manager) Segments() []string {
	return append([]string(nil), m.segments...)
}

// HasContent reports whether any segment has non-blank text.
func (m *Manager) HasContent() bool {
	for _, s := range m.segments {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// Edit replaces the text of segment index. Reaching MaxLength on the last
// segment closes it and opens a new empty one, focused.
func (m *Manager) Edit(index int, text string) error {
	if err := m.check(index); err != nil {
		return err
	}
	m.segments[index] = text
	if index == m.LastIndex() && utf8.RuneCountInString(text) >= m.maxLength {
		m.segments = append(m.segments, "")
		m.focus(m.LastIndex())
	}
	m.measure()
	return nil
}

// SubmitOnEnter opens a new empty segment after a non-blank last segment.
// It reports whether a segment was added.
func (m *Manager) SubmitOnEnter(index int) bool {
	if index != m.LastIndex() || strings.TrimSpace(m.segments[index]) == "" {
		return false
	}
	m.segments = append(m.segments, "")
	m.focus(m.LastIndex())
	m.measure()
	return true
}

// DeleteEmptyAtStart removes an empty segment when it is not the only one
// and focuses the previous position. It reports whether a segment was
// removed.
func (m *Manager) DeleteEmptyAtStart(index int) bool {
	if index < 0 || index >= len(m.segments) || len(m.segments) <= 1 || m.segments[index] != "" {
		return false
	}
	m.segments = append(m.segments[:index], m.segments[index+1:]...)
	m.focus(max(0, index-1))
	m.measure()
	return true
}

// BlurTrim truncates segment index to MaxLength - TrimMargin characters.
// It reports whether the text changed.
func (m *Manager) BlurTrim(index int) bool {
	if index < 0 || index >= len(m.segments) {
		return false
	}
	limit := m.maxLength - m.trimMargin
	text := m.segments[index]
	if utf8.RuneCountInString(text) <= limit {
		return false
	}
	m.segments[index] = string([]rune(text)[:limit])
	m.measure()
	return true
}

// Reset clears to a single empty segment and drops pending intents.
func (m *Manager) Reset() {
	m.segments = []string{""}
	m.intents = nil
	m.measure()
}

// DrainIntents returns the pending layout intents and clears them.
func (m *Manager) DrainIntents() []Intent {
	out := m.intents
	m.intents = nil
	return out
}

func (m *Manager) check(index int) error {
	if index < 0 || index >= len(m.segments) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(m.segments))
	}
	return nil
}

// focus records a focus intent. Only the latest focus target is kept.
func (m *Manager) focus(index int) {
	for i := range m.intents {
		if m.intents[i].Kind == IntentFocus {
			m.intents[i].Index = index
			return
		}
	}
	m.intents = append(m.intents, Intent{Kind: IntentFocus, Index: index})
}

func (m *Manager) measure() {
	for _, in := range m.intents {
		if in.Kind == IntentMeasure {
			return
		}
	}
	m.intents = append(m.intents, Intent{Kind: IntentMeasure})
}
