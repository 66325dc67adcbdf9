// Package playback reveals an assistant reply as a timed, per-character
// sequence.
package playback

import (
	"time"
)

// Options holds the reveal timings.
type Options struct {
	BlockDuration time.Duration // stage 1: block fade/slide in
	BlockOffset   float64       // stage 1 starting vertical offset
	Overlap       time.Duration // stage 2 starts this long before stage 1 ends
	Stagger       time.Duration // delay between consecutive characters
	UnitDuration  time.Duration // per-character fade/slide
	UnitOffset    float64       // per-character starting horizontal offset (negated)
	SettleDelay   time.Duration // wait before the first frame
	FrameInterval time.Duration
}

// DefaultOptions returns the stock reveal timings.
func DefaultOptions() Options {
	return Options{
		BlockDuration: 300 * time.Millisecond,
		BlockOffset:   10,
		Overlap:       200 * time.Millisecond,
		Stagger:       40 * time.Millisecond,
		UnitDuration:  400 * time.Millisecond,
		UnitOffset:    10,
		SettleDelay:   100 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.BlockDuration <= 0 {
		o.BlockDuration = def.BlockDuration
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap > o.BlockDuration {
		o.Overlap = o.BlockDuration
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	}
	if o.UnitDuration <= 0 {
		o.UnitDuration = def.UnitDuration
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = def.FrameInterval
	}
	return o
}

// Unit is one addressable piece of the reply. Line breaks are hard breaks
// and carry Order -1; every other character has its reveal order.
type Unit struct {
	Char  rune
	Break bool
	Order int
}

// Progress is the eased state of an animated element.
type Progress struct {
	Opacity float64
	Offset  float64
}

// Visible reports whether the element has started to appear.
func (p Progress) Visible() bool { return p.Opacity > 0 }

// Complete reports whether the element reached its final state.
func (p Progress) Complete() bool { return p.Opacity >= 1 }

// Frame is the state of a whole timeline at one instant.
type Frame struct {
	Elapsed time.Duration
	Block   Progress
	Units   []Progress // indexed by Unit.Order
	Done    bool
}

// Revealed counts fully revealed character units.
func (f Frame) Revealed() int {
	n := 0
	for _, u := range f.Units {
		if u.Complete() {
			n++
		}
	}
	return n
}

// Timeline is the precomputed two-stage schedule for one reply.
type Timeline struct {
	opts     Options
	units    []Unit
	animated int
}

// NewTimeline splits text into character units.
func NewTimeline(text string, opts Options) *Timeline {
	tl := &Timeline{opts: opts.withDefaults()}
	for _, r := range text {
		if r == '\n' {
			tl.units = append(tl.units, Unit{Char: r, Break: true, Order: -1})
			continue
		}
		tl.units = append(tl.units, Unit{Char: r, Order: tl.animated})
		tl.animated++
	}
	return tl
}

// Units returns every unit, breaks included, in text order.
func (t *Timeline) Units() []Unit {
	return append([]Unit(nil), t.units...)
}

// AnimatedCount returns the number of character units that animate.
func (t *Timeline) AnimatedCount() int { return t.animated }

// Options returns the effective timings.
func (t *Timeline) Options() Options { return t.opts }

// UnitStart returns when character order i begins to reveal.
func (t *Timeline) UnitStart(i int) time.Duration {
	return t.opts.BlockDuration - t.opts.Overlap + time.Duration(i)*t.opts.Stagger
}

// Duration returns the length of the full sequence, zero when nothing
// animates.
func (t *Timeline) Duration() time.Duration {
	if t.animated == 0 {
		return 0
	}
	end := t.UnitStart(t.animated-1) + t.opts.UnitDuration
	if end < t.opts.BlockDuration {
		end = t.opts.BlockDuration
	}
	return end
}

// Frame evaluates the timeline at elapsed.
func (t *Timeline) Frame(elapsed time.Duration) Frame {
	if elapsed < 0 {
		elapsed = 0
	}
	f := Frame{
		Elapsed: elapsed,
		Units:   make([]Progress, t.animated),
		Done:    elapsed >= t.Duration(),
	}

	b := EaseOutQuad(ratio(elapsed, t.opts.BlockDuration))
	f.Block = Progress{Opacity: b, Offset: t.opts.BlockOffset * (1 - b)}

	for i := range f.Units {
		u := EaseOutQuad(ratio(elapsed-t.UnitStart(i), t.opts.UnitDuration))
		f.Units[i] = Progress{Opacity: u, Offset: -t.opts.UnitOffset * (1 - u)}
	}
	return f
}

func ratio(d, total time.Duration) float64 {
	if total <= 0 || d >= total {
		return 1
	}
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(total)
}

// EaseOutQuad is the power2.out curve.
func EaseOutQuad(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - (1-t)*(1-t)
}
