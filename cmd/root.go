// Package cmd implements the serifu command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/linanwx/serifu/config"
	"github.com/linanwx/serifu/logger"
	"github.com/spf13/cobra"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:   "serifu",
	Short: "Compose lines of dialogue and watch the reply reveal",
	Long: `serifu lets you write a line of dialogue in short segments, send it to a
language model and watch the reply appear character by character.

Run 'serifu serve' to start the chat gateway, then 'serifu chat' to talk to it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if configDirFlag != "" {
			config.SetConfigDir(configDirFlag)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		if err := logger.Init(cfg.BuildLoggerConfig(), dir); err != nil {
			fmt.Fprintln(os.Stderr, "logger init error:", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.serifu)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var loadedConfig *config.Config

func loadConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	loadedConfig = cfg
	return cfg, nil
}
