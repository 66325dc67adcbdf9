package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linanwx/serifu/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive composer",
	Long: `Open the terminal composer connected to a running gateway.

Keys:
  Enter        open a new segment
  Ctrl+S       send the line
  Backspace    remove an empty segment
  Tab          move between segments
  Ctrl+C       quit`,
	RunE: runChat,
}

var chatEndpoint string

func init() {
	chatCmd.Flags().StringVar(&chatEndpoint, "endpoint", "", "Gateway URL (overrides client.endpoint)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chatEndpoint != "" {
		cfg.Client.Endpoint = chatEndpoint
	}
	client := newClient(cfg)

	probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	_, probeErr := client.Status(probeCtx)
	cancel()
	if probeErr != nil {
		return fmt.Errorf("gateway not reachable at %s (run 'serifu serve' first): %w", cfg.Client.Endpoint, probeErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, tui.Config{
		Gateway:     client,
		Composer:    composerOptions(cfg),
		Playback:    playbackOptions(cfg),
		Placeholder: cfg.Composer.Placeholder,
	})
}
