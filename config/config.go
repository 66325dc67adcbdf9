// Package config handles configuration loading and saving.
package config

import (
	"strings"
	"time"

	"github.com/linanwx/serifu/logger"
)

const (
	configFileName = "config.yaml"
	configDirName  = ".serifu"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Gateway  GatewayConfig  `json:"gateway" yaml:"gateway"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Client   ClientConfig   `json:"client" yaml:"client"`
	Composer ComposerConfig `json:"composer" yaml:"composer"`
	Playback PlaybackConfig `json:"playback" yaml:"playback"`
	Logging  LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// GatewayConfig contains settings for the HTTP chat service gateway.
type GatewayConfig struct {
	Addr                string  `json:"addr,omitempty" yaml:"addr,omitempty"`                               // default: 127.0.0.1:3000
	Path                string  `json:"path,omitempty" yaml:"path,omitempty"`                               // default: /api/
	SystemPrompt        string  `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`               // overrides the embedded prompt
	ContextWindowTokens int     `json:"contextWindowTokens,omitempty" yaml:"contextWindowTokens,omitempty"` // defaults to 128000
	ContextWarnRatio    float64 `json:"contextWarnRatio,omitempty" yaml:"contextWarnRatio,omitempty"`       // defaults to 0.8
}

// ProviderConfig selects and configures the upstream LLM provider.
type ProviderConfig struct {
	Name        string         `json:"name" yaml:"name"` // openai, openrouter, anthropic
	Model       string         `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey      string         `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase     string         `json:"apiBase,omitempty" yaml:"apiBase,omitempty"` // optional custom base URL
	MaxTokens   int            `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature float64        `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	ExtraBody   map[string]any `json:"extraBody,omitempty" yaml:"extraBody,omitempty"` // merged into every request body
}

// ClientConfig contains settings for the composition client.
type ClientConfig struct {
	Endpoint string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // gateway URL
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ComposerConfig contains segment input limits.
type ComposerConfig struct {
	MaxLength   int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`   // split threshold in characters
	TrimMargin  int    `json:"trimMargin,omitempty" yaml:"trimMargin,omitempty"` // blur trims to maxLength - trimMargin
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// PlaybackConfig contains reveal animation timings.
type PlaybackConfig struct {
	BlockDuration time.Duration `json:"blockDuration,omitempty" yaml:"blockDuration,omitempty"`
	BlockOffset   float64       `json:"blockOffset,omitempty" yaml:"blockOffset,omitempty"`
	Overlap       time.Duration `json:"overlap,omitempty" yaml:"overlap,omitempty"`
	Stagger       time.Duration `json:"stagger,omitempty" yaml:"stagger,omitempty"`
	UnitDuration  time.Duration `json:"unitDuration,omitempty" yaml:"unitDuration,omitempty"`
	UnitOffset    float64       `json:"unitOffset,omitempty" yaml:"unitOffset,omitempty"`
	SettleDelay   time.Duration `json:"settleDelay,omitempty" yaml:"settleDelay,omitempty"`
	FrameInterval time.Duration `json:"frameInterval,omitempty" yaml:"frameInterval,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// BuildLoggerConfig converts the logging section into logger settings.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}
