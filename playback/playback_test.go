package playback

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewTimelineUnits(t *testing.T) {
	tl := NewTimeline("a\nbあ", DefaultOptions())
	units := tl.Units()
	if len(units) != 4 {
		t.Fatalf("units = %d, want 4", len(units))
	}
	if tl.AnimatedCount() != 3 {
		t.Fatalf("AnimatedCount() = %d, want 3", tl.AnimatedCount())
	}
	if !units[1].Break || units[1].Order != -1 {
		t.Fatalf("newline unit = %+v, want hard break", units[1])
	}
	if units[3].Char != 'あ' || units[3].Order != 2 {
		t.Fatalf("last unit = %+v", units[3])
	}
}

func TestTimelineSchedule(t *testing.T) {
	tl := NewTimeline("hi there", DefaultOptions())
	if tl.AnimatedCount() != 8 {
		t.Fatalf("AnimatedCount() = %d, want 8", tl.AnimatedCount())
	}
	if got := tl.UnitStart(0); got != 100*time.Millisecond {
		t.Fatalf("UnitStart(0) = %v, want 100ms (overlapping the block stage)", got)
	}
	if got := tl.UnitStart(3); got != 220*time.Millisecond {
		t.Fatalf("UnitStart(3) = %v, want 220ms", got)
	}
	if got := tl.Duration(); got != 780*time.Millisecond {
		t.Fatalf("Duration() = %v, want 780ms", got)
	}
}

func TestTimelineFrames(t *testing.T) {
	tl := NewTimeline("ab", DefaultOptions())

	f := tl.Frame(0)
	if f.Block.Opacity != 0 || !approx(f.Block.Offset, 10) || f.Units[0].Visible() || f.Done {
		t.Fatalf("frame(0) = %+v", f)
	}

	f = tl.Frame(100 * time.Millisecond)
	if !approx(f.Block.Opacity, 1-(2.0/3)*(2.0/3)) {
		t.Fatalf("block opacity = %v", f.Block.Opacity)
	}
	if f.Units[0].Visible() {
		t.Fatal("unit 0 starts exactly at 100ms")
	}

	f = tl.Frame(300 * time.Millisecond)
	if !approx(f.Units[0].Opacity, 0.75) || !approx(f.Units[0].Offset, -2.5) {
		t.Fatalf("unit 0 at half time = %+v, want eased 0.75", f.Units[0])
	}
	if !f.Block.Complete() {
		t.Fatal("block stage should be complete at 300ms")
	}

	f = tl.Frame(tl.Duration())
	if !f.Done || f.Revealed() != 2 {
		t.Fatalf("final frame = %+v", f)
	}
	if !approx(f.Units[1].Offset, 0) {
		t.Fatalf("final offset = %v", f.Units[1].Offset)
	}
}

func TestEmptyTimeline(t *testing.T) {
	tl := NewTimeline("\n\n", DefaultOptions())
	if tl.AnimatedCount() != 0 || tl.Duration() != 0 {
		t.Fatalf("timeline = %d units, %v", tl.AnimatedCount(), tl.Duration())
	}
	if !tl.Frame(0).Done {
		t.Fatal("empty timeline is done at 0")
	}
}

func TestEaseOutQuad(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.5, 0.75}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := EaseOutQuad(tt.in); !approx(got, tt.want) {
			t.Errorf("EaseOutQuad(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlayZeroUnitsResolvesImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewAnimator(DefaultOptions(), clockwork.NewFakeClock())
	for _, text := range []string{"", "\n"} {
		called := false
		p := a.Play(context.Background(), 3, text, func(Frame) { called = true })
		select {
		case <-p.Done():
		default:
			t.Fatalf("Play(%q) should resolve immediately", text)
		}
		if called {
			t.Fatalf("Play(%q) must not schedule frames", text)
		}
		if p.TurnIndex != 3 {
			t.Fatalf("TurnIndex = %d", p.TurnIndex)
		}
	}
}

func TestPlayRevealsEveryUnit(t *testing.T) {
	defer goleak.VerifyNone(t)

	fc := clockwork.NewFakeClock()
	a := NewAnimator(DefaultOptions(), fc)

	var mu sync.Mutex
	var frames []Frame
	p := a.Play(context.Background(), 1, "hi there", func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Settle delay.
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for settle timer: %v", err)
	}
	select {
	case <-p.Done():
		t.Fatal("playback finished before the settle delay elapsed")
	default:
	}
	fc.Advance(100 * time.Millisecond)

	// Frame ticker.
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for ticker: %v", err)
	}
	fc.Advance(p.Timeline.Duration())

	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatal("playback did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(frames) < 2 {
		t.Fatalf("frames = %d, want initial and final", len(frames))
	}
	if frames[0].Elapsed != 0 {
		t.Fatalf("first frame elapsed = %v", frames[0].Elapsed)
	}
	last := frames[len(frames)-1]
	if !last.Done || last.Revealed() != 8 {
		t.Fatalf("last frame = done %v revealed %d, want 8", last.Done, last.Revealed())
	}
}

func TestPlayCancelJumpsToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	fc := clockwork.NewFakeClock()
	a := NewAnimator(DefaultOptions(), fc)

	ctx, cancel := context.WithCancel(context.Background())
	var last Frame
	var mu sync.Mutex
	p := a.Play(ctx, 0, "abc", func(f Frame) {
		mu.Lock()
		last = f
		mu.Unlock()
	})
	cancel()

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled playback did not resolve")
	}
	mu.Lock()
	defer mu.Unlock()
	if !last.Done || last.Revealed() != 3 {
		t.Fatalf("last frame = %+v, want final state", last)
	}
}
