// Package conversation holds the append-only log of user and assistant turns.
package conversation

import (
	"strings"
)

// Kind tags a turn as a user submission or an assistant reply.
type Kind int

const (
	KindUser Kind = iota
	KindAssistant
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is one log entry. Segments is set for user turns, Text for assistant
// turns.
type Turn struct {
	Kind     Kind
	Segments []string
	Text     string
}

// Content returns the text sent to the chat service for this turn.
func (t Turn) Content() string {
	if t.Kind == KindUser {
		return strings.Join(t.Segments, "")
	}
	return t.Text
}

func (t Turn) clone() Turn {
	if t.Segments != nil {
		t.Segments = append([]string(nil), t.Segments...)
	}
	return t
}

// HistoryMessage is a role-tagged entry of the chat history.
type HistoryMessage struct {
	Role    string
	Content string
}

// Log is an append-only ordered history. Entries are never mutated or
// removed; the index is the identity used for playback targeting.
type Log struct {
	turns []Turn
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// CleanSegments trims every segment and drops blank ones.
func CleanSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AppendUser appends a user turn built from the non-blank, trimmed segments.
// It reports false and appends nothing when no segment survives.
func (l *Log) AppendUser(segments []string) (int, bool) {
	cleaned := CleanSegments(segments)
	if len(cleaned) == 0 {
		return -1, false
	}
	l.turns = append(l.turns, Turn{Kind: KindUser, Segments: cleaned})
	return len(l.turns) - 1, true
}

// AppendAssistant appends an assistant turn. text may be empty.
func (l *Log) AppendAssistant(text string) int {
	l.turns = append(l.turns, Turn{Kind: KindAssistant, Text: text})
	return len(l.turns) - 1
}

// Turns returns a copy of every turn in order.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	for i, t := range l.turns {
		out[i] = t.clone()
	}
	return out
}

// ChatHistory maps the whole log to role-tagged messages.
func (l *Log) ChatHistory() []HistoryMessage {
	return l.HistoryBefore(len(l.turns))
}

// HistoryBefore maps the first n turns to role-tagged messages.
func (l *Log) HistoryBefore(n int) []HistoryMessage {
	if n > len(l.turns) {
		n = len(l.turns)
	}
	if n < 0 {
		n = 0
	}
	out := make([]HistoryMessage, 0, n)
	for _, t := range l.turns[:n] {
		out = append(out, HistoryMessage{Role: t.Kind.String(), Content: t.Content()})
	}
	return out
}
