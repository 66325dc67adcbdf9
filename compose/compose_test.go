package compose

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func focusTarget(intents []Intent) (int, bool) {
	for _, in := range intents {
		if in.Kind == IntentFocus {
			return in.Index, true
		}
	}
	return 0, false
}

func TestNewManagerStartsWithOneEmptySegment(t *testing.T) {
	m := NewManager(Options{})
	if m.Len() != 1 || m.Text(0) != "" {
		t.Fatalf("segments = %q, want one empty", m.Segments())
	}
	if m.MaxLength() != DefaultMaxLength {
		t.Fatalf("MaxLength() = %d", m.MaxLength())
	}
}

func TestEditSplitsLastSegmentAtThreshold(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "exact ascii", text: strings.Repeat("a", 24)},
		{name: "over ascii", text: strings.Repeat("b", 30)},
		{name: "multibyte", text: strings.Repeat("あ", 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(Options{})
			m.Edit(0, "first")
			m.SubmitOnEnter(0)
			m.DrainIntents()

			before := m.Len()
			if err := m.Edit(1, tt.text); err != nil {
				t.Fatalf("Edit() error = %v", err)
			}
			if m.Len() != before+1 {
				t.Fatalf("Len() = %d, want %d", m.Len(), before+1)
			}
			if m.Text(m.Len()-2) != tt.text {
				t.Fatalf("closed segment = %q, want verbatim %q", m.Text(m.Len()-2), tt.text)
			}
			if m.Text(m.LastIndex()) != "" {
				t.Fatalf("new segment = %q, want empty", m.Text(m.LastIndex()))
			}
			idx, ok := focusTarget(m.DrainIntents())
			if !ok || idx != m.LastIndex() {
				t.Fatalf("focus = (%d, %v), want last %d", idx, ok, m.LastIndex())
			}
		})
	}
}

func TestEditBelowThresholdOrNonLastDoesNotSplit(t *testing.T) {
	m := NewManager(Options{})
	m.Edit(0, strings.Repeat("a", 23))
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 below threshold", m.Len())
	}

	m.SubmitOnEnter(0)
	m.Edit(0, strings.Repeat("a", 40))
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, editing a non-last segment must not split", m.Len())
	}
}

func TestEditOutOfRange(t *testing.T) {
	m := NewManager(Options{})
	if err := m.Edit(3, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Edit(3) error = %v, want ErrIndexOutOfRange", err)
	}
	if err := m.Edit(-1, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Edit(-1) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSubmitOnEnter(t *testing.T) {
	m := NewManager(Options{})
	if m.SubmitOnEnter(0) {
		t.Fatal("SubmitOnEnter on empty segment should be a no-op")
	}
	m.Edit(0, "   ")
	if m.SubmitOnEnter(0) {
		t.Fatal("SubmitOnEnter on blank segment should be a no-op")
	}

	m.Edit(0, "hello")
	m.DrainIntents()
	if !m.SubmitOnEnter(0) {
		t.Fatal("SubmitOnEnter should add a segment")
	}
	if !reflect.DeepEqual(m.Segments(), []string{"hello", ""}) {
		t.Fatalf("segments = %q", m.Segments())
	}
	if idx, ok := focusTarget(m.DrainIntents()); !ok || idx != 1 {
		t.Fatalf("focus = (%d, %v), want 1", idx, ok)
	}

	m.Edit(1, "world")
	if m.SubmitOnEnter(0) {
		t.Fatal("SubmitOnEnter on non-last segment should be a no-op")
	}
}

func TestDeleteEmptyAtStartMerges(t *testing.T) {
	m := NewManager(Options{})
	m.Edit(0, "a")
	m.SubmitOnEnter(0)
	m.Edit(1, "")
	m.SubmitOnEnter(1) // blank, no-op
	m.Edit(1, "b")
	m.SubmitOnEnter(1)
	m.Edit(2, "c")
	// [a b c] -> empty the middle one
	m.Edit(1, "")
	m.DrainIntents()

	before := m.Len()
	if !m.DeleteEmptyAtStart(1) {
		t.Fatal("DeleteEmptyAtStart should remove the empty segment")
	}
	if m.Len() != before-1 {
		t.Fatalf("Len() = %d, want %d", m.Len(), before-1)
	}
	if !reflect.DeepEqual(m.Segments(), []string{"a", "c"}) {
		t.Fatalf("segments = %q, other texts must be untouched", m.Segments())
	}
	if idx, ok := focusTarget(m.DrainIntents()); !ok || idx != 0 {
		t.Fatalf("focus = (%d, %v), want 0", idx, ok)
	}
}

func TestDeleteEmptyAtStartGuards(t *testing.T) {
	m := NewManager(Options{})
	if m.DeleteEmptyAtStart(0) {
		t.Fatal("the only segment must never be removed")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}

	m.Edit(0, "x")
	m.SubmitOnEnter(0)
	if m.DeleteEmptyAtStart(0) {
		t.Fatal("non-empty segment must not be removed")
	}
	if !m.DeleteEmptyAtStart(1) || m.Len() != 1 {
		t.Fatalf("empty last segment should be removed, Len() = %d", m.Len())
	}
	if idx, ok := focusTarget(m.DrainIntents()); !ok || idx != 0 {
		t.Fatalf("focus = (%d, %v), want 0", idx, ok)
	}
	if m.DeleteEmptyAtStart(7) {
		t.Fatal("out of range delete should be a no-op")
	}
}

func TestNeverEmptyInvariant(t *testing.T) {
	m := NewManager(Options{})
	ops := []func(){
		func() { m.DeleteEmptyAtStart(0) },
		func() { m.Edit(0, strings.Repeat("x", 24)) },
		func() { m.DeleteEmptyAtStart(1) },
		func() { m.Edit(0, "") },
		func() { m.DeleteEmptyAtStart(0) },
		func() { m.DeleteEmptyAtStart(0) },
		func() { m.BlurTrim(0) },
		func() { m.Reset() },
		func() { m.DeleteEmptyAtStart(0) },
	}
	for i, op := range ops {
		op()
		if m.Len() < 1 {
			t.Fatalf("after op %d Len() = %d", i, m.Len())
		}
	}
}

func TestBlurTrim(t *testing.T) {
	m := NewManager(Options{})
	m.Edit(0, strings.Repeat("あ", 23))
	if !m.BlurTrim(0) {
		t.Fatal("BlurTrim should truncate")
	}
	if got := m.Text(0); got != strings.Repeat("あ", 22) {
		t.Fatalf("text = %q (%d runes), want 22 runes", got, len([]rune(got)))
	}

	m.Edit(0, strings.Repeat("a", 22))
	if m.BlurTrim(0) {
		t.Fatal("BlurTrim at the bound should not change text")
	}
}

func TestResetClearsIntents(t *testing.T) {
	m := NewManager(Options{})
	m.Edit(0, "x")
	m.SubmitOnEnter(0)
	m.Reset()

	if !reflect.DeepEqual(m.Segments(), []string{""}) {
		t.Fatalf("segments = %q", m.Segments())
	}
	if _, ok := focusTarget(m.DrainIntents()); ok {
		t.Fatal("Reset must clear pending focus")
	}
}

func TestHasContent(t *testing.T) {
	m := NewManager(Options{})
	if m.HasContent() {
		t.Fatal("empty manager has no content")
	}
	m.Edit(0, " a ")
	m.SubmitOnEnter(0)
	m.Edit(1, "  ")
	if !m.HasContent() {
		t.Fatal("HasContent should be true")
	}
	if !reflect.DeepEqual(m.Segments(), []string{" a ", "  "}) {
		t.Fatalf("Segments() = %q, want raw text kept", m.Segments())
	}
}

func TestEveryMutationRecordsMeasure(t *testing.T) {
	m := NewManager(Options{})
	m.Edit(0, "a")
	intents := m.DrainIntents()
	if len(intents) != 1 || intents[0].Kind != IntentMeasure {
		t.Fatalf("intents = %+v, want one measure", intents)
	}
	if len(m.DrainIntents()) != 0 {
		t.Fatal("DrainIntents must clear the queue")
	}
}

func TestCustomOptions(t *testing.T) {
	m := NewManager(Options{MaxLength: 5, TrimMargin: 1})
	m.Edit(0, "abcde")
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want split at 5", m.Len())
	}
	m.Edit(0, "abcdefg")
	m.BlurTrim(0)
	if m.Text(0) != "abcd" {
		t.Fatalf("text = %q, want abcd", m.Text(0))
	}
}
