package config

import (
	"time"

	"github.com/linanwx/serifu/provider"
)

const (
	defaultGatewayAddr         = "127.0.0.1:3000"
	defaultGatewayPath         = "/api/"
	defaultContextWindowTokens = 128000
	defaultContextWarnRatio    = 0.8

	defaultProvider = "openai"
	defaultModel    = "gpt-4o"

	defaultClientTimeout = 2 * time.Minute

	defaultMaxLength   = 24
	defaultTrimMargin  = 2
	defaultPlaceholder = "台詞を入力"

	defaultBlockDuration = 300 * time.Millisecond
	defaultBlockOffset   = 10
	defaultOverlap       = 200 * time.Millisecond
	defaultStagger       = 40 * time.Millisecond
	defaultUnitDuration  = 400 * time.Millisecond
	defaultUnitOffset    = 10
	defaultSettleDelay   = 100 * time.Millisecond
	defaultFrameInterval = 16 * time.Millisecond
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  true,
		File:    "logs/serifu.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = defaultGatewayAddr
	}
	if c.Gateway.Path == "" {
		c.Gateway.Path = defaultGatewayPath
	}
	if c.Gateway.ContextWindowTokens <= 0 {
		c.Gateway.ContextWindowTokens = defaultContextWindowTokens
	}
	if c.Gateway.ContextWarnRatio <= 0 || c.Gateway.ContextWarnRatio >= 1 {
		c.Gateway.ContextWarnRatio = defaultContextWarnRatio
	}

	if c.Provider.Name == "" {
		c.Provider.Name = defaultProvider
	}
	if c.Provider.Model == "" {
		c.Provider.Model = defaultModel
		if reg, ok := provider.Registration(c.Provider.Name); ok && reg.DefaultModel != "" {
			c.Provider.Model = reg.DefaultModel
		}
	}

	if c.Client.Endpoint == "" {
		c.Client.Endpoint = "http://" + c.Gateway.Addr + c.Gateway.Path
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = defaultClientTimeout
	}

	if c.Composer.MaxLength <= 0 {
		c.Composer.MaxLength = defaultMaxLength
	}
	if c.Composer.TrimMargin <= 0 || c.Composer.TrimMargin >= c.Composer.MaxLength {
		c.Composer.TrimMargin = defaultTrimMargin
	}
	if c.Composer.Placeholder == "" {
		c.Composer.Placeholder = defaultPlaceholder
	}

	p := &c.Playback
	if p.BlockDuration <= 0 {
		p.BlockDuration = defaultBlockDuration
	}
	if p.BlockOffset == 0 {
		p.BlockOffset = defaultBlockOffset
	}
	if p.Overlap <= 0 {
		p.Overlap = defaultOverlap
	}
	if p.Overlap > p.BlockDuration {
		p.Overlap = p.BlockDuration
	}
	if p.Stagger <= 0 {
		p.Stagger = defaultStagger
	}
	if p.UnitDuration <= 0 {
		p.UnitDuration = defaultUnitDuration
	}
	if p.UnitOffset == 0 {
		p.UnitOffset = defaultUnitOffset
	}
	if p.SettleDelay < 0 {
		p.SettleDelay = 0
	} else if p.SettleDelay == 0 {
		p.SettleDelay = defaultSettleDelay
	}
	if p.FrameInterval <= 0 {
		p.FrameInterval = defaultFrameInterval
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}

	hasAny := c.Logging.Level != "" || c.Logging.File != "" || c.Logging.Stdout
	if c.Logging.Enabled == nil && hasAny {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.Stdout = def.Stdout
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
