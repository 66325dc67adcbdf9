package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/linanwx/serifu/logger"
)

const (
	anthropicAPIBase          = "https://api.anthropic.com"
	anthropicDefaultMaxTokens = 1024
)

func init() {
	RegisterProvider("anthropic", ProviderRegistration{
		DefaultModel: "claude-sonnet-4-5",
		EnvKey:       "ANTHROPIC_API_KEY",
		EnvBase:      "ANTHROPIC_API_BASE",
		Constructor: func(s Settings) Provider {
			return newAnthropicProvider(s)
		},
	})
}

// AnthropicProvider implements the Provider interface on the Messages API.
type AnthropicProvider struct {
	modelName   string
	maxTokens   int
	temperature float64
	extraBody   map[string]any
	client      anthropic.Client
}

func newAnthropicProvider(s Settings) *AnthropicProvider {
	base := strings.TrimRight(strings.TrimSpace(s.APIBase), "/")
	if base == "" {
		base = anthropicAPIBase
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return &AnthropicProvider{
		modelName:   s.Model,
		maxTokens:   maxTokens,
		temperature: s.Temperature,
		extraBody:   s.ExtraBody,
		client: anthropic.NewClient(
			anthropicoption.WithAPIKey(s.APIKey),
			anthropicoption.WithBaseURL(base),
			anthropicoption.WithMaxRetries(sdkMaxRetries),
		),
	}
}

// Chat sends a messages request. System messages are lifted into the
// request's system field.
func (p *AnthropicProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	logger.Info(
		"provider request",
		"provider", "anthropic",
		"modelName", p.modelName,
		"messageCount", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	system, messages := toAnthropicMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelName),
		MaxTokens: int64(p.maxTokens),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if p.temperature != 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	var opts []anthropicoption.RequestOption
	keys := make([]string, 0, len(p.extraBody))
	for k := range p.extraBody {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, anthropicoption.WithJSONSet(k, p.extraBody[k]))
	}

	msg, err := p.client.Messages.New(ctx, params, opts...)
	if err != nil {
		logger.Error("provider request send error", "provider", "anthropic", "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var content strings.Builder
	textBlocks := 0
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		textBlocks++
		content.WriteString(block.Text)
	}
	if textBlocks == 0 {
		logger.Error("provider no text blocks", "provider", "anthropic", "stopReason", msg.StopReason)
		return nil, ErrNoChoices
	}

	usage := Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	logger.Info(
		"provider response",
		"provider", "anthropic",
		"modelName", p.modelName,
		"stopReason", msg.StopReason,
		"promptTokens", usage.PromptTokens,
		"completionTokens", usage.CompletionTokens,
		"outputChars", content.Len(),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{Content: content.String(), Usage: usage}, nil
}

func toAnthropicMessages(messages []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			if m.Content == "" {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, out
}
