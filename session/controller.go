// Package session owns one composition session: the segment editor, the
// conversation log and the lock that keeps a single request in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/linanwx/serifu/compose"
	"github.com/linanwx/serifu/conversation"
	"github.com/linanwx/serifu/gateway"
	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/playback"
)

var (
	// ErrLocked is returned while a request or playback is in progress.
	ErrLocked = errors.New("session is locked")
	// ErrEmptyComposition is returned when no segment has non-blank text.
	ErrEmptyComposition = errors.New("nothing to submit")
	// ErrNotPending is returned when Dispatch is given a stale or foreign handle.
	ErrNotPending = errors.New("no matching pending submission")
)

// State is the composition lifecycle state.
type State int

const (
	StateIdle State = iota
	StateComposing
	StateSubmitting
	StateAwaitingReply
	StateAnimating
	StateFailedReply
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateAnimating:
		return "animating"
	case StateFailedReply:
		return "failed_reply"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gateway sends a composed message with its history and returns the reply.
type Gateway interface {
	Chat(ctx context.Context, req gateway.Request) (string, error)
}

// Player reveals an assistant reply. *playback.Animator satisfies it.
type Player interface {
	Play(ctx context.Context, turnIndex int, text string, onFrame func(playback.Frame)) *playback.Playback
}

// Transition is one state change as seen by the observer.
type Transition struct {
	From   State
	To     State
	Locked bool
}

// Options configures a Controller.
type Options struct {
	Gateway  Gateway
	Player   Player
	Composer compose.Options

	// OnTransition is called after every state change, outside the lock.
	OnTransition func(Transition)
	// OnFrame receives playback frames from the animator goroutine.
	OnFrame func(turnIndex int, f playback.Frame)
}

// Pending is the handle returned by Begin for one submission.
type Pending struct {
	TurnIndex int
	Request   gateway.Request
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Segments     []string
	Turns        []conversation.Turn
	State        State
	Locked       bool
	Animating    bool
	PlaybackTurn int // -1 when nothing is playing
}

// Controller is the single owner of a composition session. All methods are
// safe for concurrent use.
type Controller struct {
	gw           Gateway
	player       Player
	onTransition func(Transition)
	onFrame      func(int, playback.Frame)

	mu           sync.Mutex
	composer     *compose.Manager
	log          *conversation.Log
	state        State
	locked       bool
	animating    bool
	playbackTurn int
	pending      *Pending
	transitions  []Transition
}

// New creates a controller in the Idle state.
func New(opts Options) *Controller {
	return &Controller{
		gw:           opts.Gateway,
		player:       opts.Player,
		onTransition: opts.OnTransition,
		onFrame:      opts.OnFrame,
		composer:     compose.NewManager(opts.Composer),
		log:          conversation.New(),
		state:        StateIdle,
		playbackTurn: -1,
	}
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Segments:     c.composer.Segments(),
		Turns:        c.log.Turns(),
		State:        c.state,
		Locked:       c.locked,
		Animating:    c.animating,
		PlaybackTurn: c.playbackTurn,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MaxLength returns the per-segment split threshold.
func (c *Controller) MaxLength() int {
	return c.composer.MaxLength()
}

// DrainIntents returns and clears pending layout intents.
func (c *Controller) DrainIntents() []compose.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composer.DrainIntents()
}

// Edit replaces the text of one segment.
func (c *Controller) Edit(index int, text string) error {
	return c.edit(func() error { return c.composer.Edit(index, text) })
}

// SubmitOnEnter opens a new segment after a non-blank last segment.
func (c *Controller) SubmitOnEnter(index int) (bool, error) {
	var changed bool
	err := c.edit(func() error {
		changed = c.composer.SubmitOnEnter(index)
		return nil
	})
	return changed, err
}

// DeleteEmptyAtStart removes an empty segment that is not the only one.
func (c *Controller) DeleteEmptyAtStart(index int) (bool, error) {
	var changed bool
	err := c.edit(func() error {
		changed = c.composer.DeleteEmptyAtStart(index)
		return nil
	})
	return changed, err
}

// BlurTrim truncates a segment when it loses focus.
func (c *Controller) BlurTrim(index int) (bool, error) {
	var changed bool
	err := c.edit(func() error {
		changed = c.composer.BlurTrim(index)
		return nil
	})
	return changed, err
}

func (c *Controller) edit(fn func() error) error {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return ErrLocked
	}
	err := fn()
	if err == nil && c.state == StateIdle {
		c.setState(StateComposing)
	}
	c.unlockAndNotify()
	return err
}

// Submit begins a submission and dispatches it, blocking until the reply
// has finished playing or the request has failed.
func (c *Controller) Submit(ctx context.Context) error {
	p, err := c.Begin()
	if err != nil {
		return err
	}
	return c.Dispatch(ctx, p)
}

// Begin records the user turn, resets the editor and locks the session.
// It does no I/O, so it can run inside a UI update loop.
func (c *Controller) Begin() (*Pending, error) {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return nil, ErrLocked
	}
	if !c.composer.HasContent() {
		c.mu.Unlock()
		return nil, ErrEmptyComposition
	}

	cleaned := conversation.CleanSegments(c.composer.Segments())
	history := c.log.ChatHistory()
	idx, _ := c.log.AppendUser(cleaned)
	c.composer.Reset()
	c.locked = true

	p := &Pending{
		TurnIndex: idx,
		Request: gateway.Request{
			Message: strings.Join(cleaned, ""),
			History: history,
		},
	}
	c.pending = p
	c.setState(StateSubmitting)
	c.unlockAndNotify()

	logger.Info("submission started", "turn", idx, "segments", len(cleaned), "historyLen", len(history))
	return p, nil
}

// Dispatch sends a pending submission and plays the reply. The session
// stays locked until playback completes; on failure it unlocks at once and
// keeps the user turn.
func (c *Controller) Dispatch(ctx context.Context, p *Pending) error {
	c.mu.Lock()
	if p == nil || c.pending != p {
		c.mu.Unlock()
		return ErrNotPending
	}
	c.pending = nil
	c.setState(StateAwaitingReply)
	c.unlockAndNotify()

	reply, err := c.gw.Chat(ctx, p.Request)
	if err != nil {
		logger.Warn("chat request failed", "turn", p.TurnIndex, "err", err)
		c.mu.Lock()
		c.setState(StateFailedReply)
		c.locked = false
		c.setState(StateComposing)
		c.unlockAndNotify()
		return fmt.Errorf("chat request failed: %w", err)
	}

	c.mu.Lock()
	idx := c.log.AppendAssistant(reply)
	c.animating = true
	c.playbackTurn = idx
	c.setState(StateAnimating)
	c.unlockAndNotify()

	var onFrame func(playback.Frame)
	if c.onFrame != nil {
		onFrame = func(f playback.Frame) { c.onFrame(idx, f) }
	}
	pb := c.player.Play(ctx, idx, reply, onFrame)
	<-pb.Done()

	c.mu.Lock()
	c.animating = false
	c.playbackTurn = -1
	c.locked = false
	c.setState(StateComposing)
	c.unlockAndNotify()

	logger.Info("submission finished", "turn", idx, "replyChars", len([]rune(reply)))
	return nil
}

// setState must be called with mu held.
func (c *Controller) setState(to State) {
	if c.state == to {
		return
	}
	c.transitions = append(c.transitions, Transition{From: c.state, To: to, Locked: c.locked})
	c.state = to
}

// unlockAndNotify releases mu and delivers queued transitions.
func (c *Controller) unlockAndNotify() {
	queued := c.transitions
	c.transitions = nil
	c.mu.Unlock()

	if c.onTransition == nil {
		return
	}
	for _, t := range queued {
		c.onTransition(t)
	}
}
