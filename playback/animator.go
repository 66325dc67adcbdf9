package playback

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/linanwx/serifu/logger"
)

// Playback is the completion handle of one reveal. Done closes exactly once.
type Playback struct {
	TurnIndex int
	Timeline  *Timeline

	done chan struct{}
	once sync.Once
}

func newPlayback(turnIndex int, tl *Timeline) *Playback {
	return &Playback{TurnIndex: turnIndex, Timeline: tl, done: make(chan struct{})}
}

// Done returns a channel closed when the sequence finishes.
func (p *Playback) Done() <-chan struct{} { return p.done }

func (p *Playback) finish() {
	p.once.Do(func() { close(p.done) })
}

// Animator schedules playbacks on a clock.
type Animator struct {
	opts  Options
	clock clockwork.Clock
}

// NewAnimator creates an animator. A nil clock uses the real clock.
func NewAnimator(opts Options, clock clockwork.Clock) *Animator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Animator{opts: opts.withDefaults(), clock: clock}
}

// Play reveals text for the turn at turnIndex and calls onFrame from the
// playback goroutine for every frame. A reply without character units
// resolves immediately. Cancelling ctx jumps to the final frame.
func (a *Animator) Play(ctx context.Context, turnIndex int, text string, onFrame func(Frame)) *Playback {
	tl := NewTimeline(text, a.opts)
	p := newPlayback(turnIndex, tl)
	if tl.AnimatedCount() == 0 {
		p.finish()
		return p
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}

	go a.run(ctx, p, onFrame)
	return p
}

func (a *Animator) run(ctx context.Context, p *Playback, onFrame func(Frame)) {
	defer p.finish()
	tl := p.Timeline
	final := func() { onFrame(tl.Frame(tl.Duration())) }

	if d := tl.opts.SettleDelay; d > 0 {
		select {
		case <-a.clock.After(d):
		case <-ctx.Done():
			final()
			return
		}
	}

	logger.Debug("playback started", "turn", p.TurnIndex, "units", tl.AnimatedCount(), "duration", tl.Duration())

	start := a.clock.Now()
	ticker := a.clock.NewTicker(tl.opts.FrameInterval)
	defer ticker.Stop()

	onFrame(tl.Frame(0))
	for {
		select {
		case <-ticker.Chan():
			f := tl.Frame(a.clock.Since(start))
			onFrame(f)
			if f.Done {
				logger.Debug("playback finished", "turn", p.TurnIndex)
				return
			}
		case <-ctx.Done():
			final()
			return
		}
	}
}
