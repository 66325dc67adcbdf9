package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linanwx/serifu/compose"
	"github.com/linanwx/serifu/gateway"
	"github.com/linanwx/serifu/playback"
	"github.com/linanwx/serifu/session"
)

type stubGateway struct{}

func (stubGateway) Chat(context.Context, gateway.Request) (string, error) { return "ok", nil }

func typeText(c *Composer, text string) {
	for _, r := range text {
		c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newTestComposer() (*Composer, *session.Controller) {
	ctrl := session.New(session.Options{
		Gateway:  stubGateway{},
		Composer: compose.Options{MaxLength: 4, TrimMargin: 1},
	})
	return NewComposer(ctrl, "台詞を入力"), ctrl
}

func TestComposerTypingSplitsAtMaxLength(t *testing.T) {
	c, ctrl := newTestComposer()

	typeText(c, "abcd")
	segs := ctrl.Snapshot().Segments
	if len(segs) != 2 || segs[0] != "abc" || segs[1] != "" {
		t.Fatalf("segments = %q, want split after 4 runes and the closed segment trimmed on blur", segs)
	}
	if c.Focused() != 1 {
		t.Fatalf("focus = %d, want new segment", c.Focused())
	}

	typeText(c, "e")
	if got := ctrl.Snapshot().Segments; got[1] != "e" {
		t.Fatalf("segment 1 = %q, want typing to follow focus", got[1])
	}
}

func TestComposerEnterAndBackspace(t *testing.T) {
	c, ctrl := newTestComposer()

	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if n := len(ctrl.Snapshot().Segments); n != 1 {
		t.Fatalf("Enter on empty segment added one: %d segments", n)
	}

	typeText(c, "ab")
	c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if segs := ctrl.Snapshot().Segments; len(segs) != 2 || c.Focused() != 1 {
		t.Fatalf("segments = %q focus = %d, want new focused segment", segs, c.Focused())
	}

	c.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if segs := ctrl.Snapshot().Segments; len(segs) != 1 || segs[0] != "ab" || c.Focused() != 0 {
		t.Fatalf("segments = %q focus = %d, want merge back to first", segs, c.Focused())
	}
}

func TestComposerTabTrimsOnBlur(t *testing.T) {
	c, ctrl := newTestComposer()
	if err := ctrl.Edit(0, "abcd"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	c.Update(SnapshotMsg{Snapshot: ctrl.Snapshot()})
	if c.Focused() != 1 {
		t.Fatalf("focus = %d after split", c.Focused())
	}

	c.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	c.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := ctrl.Snapshot().Segments[0]; got != "abc" {
		t.Fatalf("segment 0 = %q, want trimmed to 3 runes on blur", got)
	}
}

func TestComposerPasteIsSplitNotCut(t *testing.T) {
	c, ctrl := newTestComposer()

	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abcdef")})
	segs := ctrl.Snapshot().Segments
	if len(segs) != 2 || segs[0] != "abc" || c.Focused() != 1 {
		t.Fatalf("segments = %q focus = %d, want paste kept, split and trimmed", segs, c.Focused())
	}
}

func TestSubmitTrimsFocusedSegment(t *testing.T) {
	ctrl := session.New(session.Options{
		Gateway:  stubGateway{},
		Composer: compose.Options{MaxLength: 4, TrimMargin: 1},
	})
	app := NewApp(context.Background(), ctrl, "")
	comp := app.composer.(*Composer)

	typeText(comp, "ab")
	comp.Update(tea.KeyMsg{Type: tea.KeyEnter})
	comp.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	typeText(comp, "cd")
	if got := ctrl.Snapshot().Segments[0]; got != "abcd" {
		t.Fatalf("segment 0 = %q, editing a closed segment must not split", got)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	snap := ctrl.Snapshot()
	if !snap.Locked || len(snap.Turns) != 1 {
		t.Fatalf("snapshot = %+v, want a locked submission", snap)
	}
	if got := snap.Turns[0].Segments; len(got) != 1 || got[0] != "abc" {
		t.Fatalf("user segments = %q, want the focused segment trimmed before submit", got)
	}
}

func TestComposerShowsPendingWhileAwaiting(t *testing.T) {
	c, ctrl := newTestComposer()
	typeText(c, "hi")
	if _, err := ctrl.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	c.Update(SnapshotMsg{Snapshot: ctrl.Snapshot()})

	if !strings.Contains(c.View(), pendingIndicator) {
		t.Fatalf("View() = %q, want pending indicator", c.View())
	}
	typeText(c, "x")
	if got := ctrl.Snapshot().Segments; len(got) != 1 || got[0] != "" {
		t.Fatalf("segments = %q, keys must be ignored while locked", got)
	}
}

func TestRenderReveal(t *testing.T) {
	tl := playback.NewTimeline("hi\nyo", playback.DefaultOptions())

	if out := renderReveal("hi\nyo", nil); strings.ContainsAny(out, "hiyo") {
		t.Fatalf("unstarted reveal = %q, want characters hidden", out)
	}

	final := tl.Frame(tl.Duration())
	out := renderReveal("hi\nyo", &final)
	if out != "hi\nyo" {
		t.Fatalf("final reveal = %q", out)
	}

	mid := tl.Frame(tl.UnitStart(2))
	if out := renderReveal("hi\nyo", &mid); !strings.Contains(out, "h") || strings.Contains(out, "o") {
		t.Fatalf("mid reveal = %q, want early characters only", out)
	}
}

func TestQuoteSegments(t *testing.T) {
	if got := quoteSegments([]string{"こんにちは", "world"}); got != "「こんにちは」「world」" {
		t.Fatalf("quoteSegments() = %q", got)
	}
}

func TestWrapPieces(t *testing.T) {
	tests := []struct {
		name   string
		pieces []string
		width  int
		want   string
	}{
		{name: "no wrap", pieces: []string{"ab", "cd"}, width: 0, want: "ab cd"},
		{name: "fits", pieces: []string{"ab", "cd"}, width: 5, want: "ab cd"},
		{name: "wraps", pieces: []string{"ab", "cd", "ef"}, width: 5, want: "ab cd\nef"},
		{name: "wide runes", pieces: []string{"台詞", "台詞"}, width: 8, want: "台詞\n台詞"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapPieces(tt.pieces, tt.width); got != tt.want {
				t.Fatalf("wrapPieces() = %q, want %q", got, tt.want)
			}
		})
	}
}
