// Package provider defines the upstream LLM provider interface and its
// implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request.
type Request struct {
	Messages []Message
}

// Message is the canonical chat message exchanged with providers.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Response represents a chat completion response.
type Response struct {
	Content string
	Usage   Usage
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrNoChoices is returned when the provider answers without usable content.
var ErrNoChoices = errors.New("no choices in response")

// Settings carries the explicit construction options of a provider.
type Settings struct {
	APIKey      string
	APIBase     string
	Model       string
	MaxTokens   int
	Temperature float64
	ExtraBody   map[string]any
}

// ProviderConstructor builds a provider from resolved settings.
type ProviderConstructor func(s Settings) Provider

// ProviderRegistration defines metadata and constructor for a provider.
type ProviderRegistration struct {
	DefaultModel string
	EnvKey       string
	EnvBase      string
	Constructor  ProviderConstructor
}

var providerRegistry = map[string]ProviderRegistration{}

// RegisterProvider registers provider metadata and constructor.
func RegisterProvider(name string, reg ProviderRegistration) {
	name = strings.TrimSpace(name)
	if name == "" || reg.Constructor == nil {
		return
	}
	reg.DefaultModel = strings.TrimSpace(reg.DefaultModel)
	reg.EnvKey = strings.TrimSpace(reg.EnvKey)
	reg.EnvBase = strings.TrimSpace(reg.EnvBase)
	providerRegistry[name] = reg
}

// SupportedProviders returns all registered provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registration returns the registration for name.
func Registration(name string) (ProviderRegistration, bool) {
	reg, ok := providerRegistry[strings.TrimSpace(name)]
	return reg, ok
}

// New builds the named provider. Empty key, base URL and model fall back to
// the registration's environment variables and default model.
func New(name string, s Settings) (Provider, error) {
	reg, ok := Registration(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if strings.TrimSpace(s.APIKey) == "" && reg.EnvKey != "" {
		s.APIKey = os.Getenv(reg.EnvKey)
	}
	if strings.TrimSpace(s.APIBase) == "" && reg.EnvBase != "" {
		s.APIBase = os.Getenv(reg.EnvBase)
	}
	if strings.TrimSpace(s.Model) == "" {
		s.Model = reg.DefaultModel
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("provider %s: api key not configured (set apiKey or %s)", name, reg.EnvKey)
	}
	return reg.Constructor(s), nil
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

func inputChars(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Role)
		total += len(m.Content)
	}
	return total
}

func normalizeBaseURL(apiBase, defaultBase string) string {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = defaultBase
	}
	base = strings.TrimRight(base, "/")
	return strings.TrimSuffix(base, "/chat/completions")
}
