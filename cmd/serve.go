package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linanwx/serifu/gateway"
	"github.com/linanwx/serifu/internal/health"
	"github.com/linanwx/serifu/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat gateway",
	Long: `Start the HTTP chat gateway that forwards composed lines to the configured
language model provider.

Examples:
  serifu serve                       # listen on the configured address
  serifu serve --addr 0.0.0.0:8080   # override the listen address`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides gateway.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	handler, err := buildHandler(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Gateway.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &gateway.Server{
		Addr:    addr,
		Path:    cfg.Gateway.Path,
		Handler: handler,
		Health: &health.Options{
			Provider:  cfg.Provider.Name,
			Model:     cfg.Provider.Model,
			StartedAt: time.Now(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serifu gateway starting", "provider", cfg.Provider.Name, "model", cfg.Provider.Model)
	fmt.Printf("serifu gateway listening on http://%s%s. Press Ctrl+C to stop.\n", addr, cfg.Gateway.Path)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}
