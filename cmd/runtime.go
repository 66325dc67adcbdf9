package cmd

import (
	"fmt"

	"github.com/linanwx/serifu/compose"
	"github.com/linanwx/serifu/config"
	"github.com/linanwx/serifu/gateway"
	"github.com/linanwx/serifu/playback"
	"github.com/linanwx/serifu/provider"
)

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	p := cfg.Provider
	prov, err := provider.New(p.Name, provider.Settings{
		APIKey:      p.APIKey,
		APIBase:     p.APIBase,
		Model:       p.Model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		ExtraBody:   p.ExtraBody,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return prov, nil
}

func buildHandler(cfg *config.Config) (*gateway.Handler, error) {
	prov, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return gateway.NewHandler(gateway.HandlerConfig{
		Provider:            prov,
		SystemPrompt:        cfg.Gateway.SystemPrompt,
		ContextWindowTokens: cfg.Gateway.ContextWindowTokens,
		ContextWarnRatio:    cfg.Gateway.ContextWarnRatio,
	}), nil
}

func composerOptions(cfg *config.Config) compose.Options {
	return compose.Options{
		MaxLength:  cfg.Composer.MaxLength,
		TrimMargin: cfg.Composer.TrimMargin,
	}
}

func playbackOptions(cfg *config.Config) playback.Options {
	p := cfg.Playback
	return playback.Options{
		BlockDuration: p.BlockDuration,
		BlockOffset:   p.BlockOffset,
		Overlap:       p.Overlap,
		Stagger:       p.Stagger,
		UnitDuration:  p.UnitDuration,
		UnitOffset:    p.UnitOffset,
		SettleDelay:   p.SettleDelay,
		FrameInterval: p.FrameInterval,
	}
}

func newClient(cfg *config.Config) *gateway.Client {
	return gateway.NewClient(cfg.Client.Endpoint, cfg.Client.Timeout)
}
