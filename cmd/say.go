package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/linanwx/serifu/logger"
	"github.com/linanwx/serifu/playback"
	"github.com/linanwx/serifu/session"
	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:   "say <segment>...",
	Short: "Send one line and print the reply as it reveals",
	Long: `Compose a line from the given segments, send it once and print the reply
character by character.

Examples:
  serifu say "今日は" "いい天気ですね"
  serifu say --local "hello"   # call the provider without a running gateway`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

var (
	sayLocal    bool
	sayEndpoint string
)

func init() {
	sayCmd.Flags().BoolVar(&sayLocal, "local", false, "Answer in-process instead of calling the gateway")
	sayCmd.Flags().StringVar(&sayEndpoint, "endpoint", "", "Gateway URL (overrides client.endpoint)")
	rootCmd.AddCommand(sayCmd)
}

func runSay(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var gw session.Gateway
	if sayLocal {
		h, err := buildHandler(cfg)
		if err != nil {
			return err
		}
		gw = h
	} else {
		if sayEndpoint != "" {
			cfg.Client.Endpoint = sayEndpoint
		}
		gw = newClient(cfg)
	}

	// Stdout carries the reveal.
	logger.Intercept(os.Stderr)
	defer logger.Restore()

	printer := &revealPrinter{w: os.Stdout}
	var ctrl *session.Controller
	ctrl = session.New(session.Options{
		Gateway:  gw,
		Player:   playback.NewAnimator(playbackOptions(cfg), nil),
		Composer: composerOptions(cfg),
		OnTransition: func(tr session.Transition) {
			if tr.To == session.StateAnimating {
				snap := ctrl.Snapshot()
				printer.reset(snap.Turns[snap.PlaybackTurn].Text)
			}
		},
		OnFrame: printer.frame,
	})

	if err := composeArgs(ctrl, args); err != nil {
		return err
	}
	pending, err := ctrl.Begin()
	if err != nil {
		return err
	}
	turns := ctrl.Snapshot().Turns
	fmt.Fprintln(os.Stdout, quoteLine(turns[pending.TurnIndex].Segments))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Dispatch(ctx, pending); err != nil {
		return err
	}
	printer.finish()
	return nil
}

// composeArgs types args into the controller, one segment per argument.
// Arguments longer than the split threshold continue in the next segment.
func composeArgs(ctrl *session.Controller, args []string) error {
	limit := ctrl.MaxLength()
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		runes := []rune(arg)
		for len(runes) > 0 {
			n := min(limit, len(runes))
			chunk := string(runes[:n])
			runes = runes[n:]

			segs := ctrl.Snapshot().Segments
			last := len(segs) - 1
			if strings.TrimSpace(segs[last]) != "" {
				if _, err := ctrl.SubmitOnEnter(last); err != nil {
					return err
				}
				last++
			}
			if err := ctrl.Edit(last, chunk); err != nil {
				return fmt.Errorf("compose segment %d: %w", last, err)
			}
		}
	}
	ctrl.DrainIntents()
	return nil
}

func quoteLine(segments []string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("「" + s + "」")
	}
	return b.String()
}

// revealPrinter writes characters as their reveal completes.
type revealPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	units []playback.Unit
	next  int
}

func (r *revealPrinter) reset(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = playback.NewTimeline(text, playback.Options{}).Units()
	r.next = 0
}

func (r *revealPrinter) frame(_ int, f playback.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.next < len(r.units) {
		u := r.units[r.next]
		if !u.Break && (u.Order >= len(f.Units) || !f.Units[u.Order].Complete()) {
			break
		}
		r.write(u.Char)
		r.next++
	}
}

// finish flushes anything not yet revealed and ends the line.
func (r *revealPrinter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ; r.next < len(r.units); r.next++ {
		r.write(r.units[r.next].Char)
	}
	r.write('\n')
}

func (r *revealPrinter) write(ch rune) {
	if _, err := io.WriteString(r.w, string(ch)); err != nil {
		logger.Debug("say write failed", "err", err)
	}
}
