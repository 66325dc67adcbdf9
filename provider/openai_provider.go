package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/linanwx/serifu/logger"
	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	openAIAPIBase     = "https://api.openai.com/v1"
	openRouterAPIBase = "https://openrouter.ai/api/v1"

	sdkMaxRetries = 0
)

func init() {
	RegisterProvider("openai", ProviderRegistration{
		DefaultModel: "gpt-4o",
		EnvKey:       "OPENAI_API_KEY",
		EnvBase:      "OPENAI_API_BASE",
		Constructor: func(s Settings) Provider {
			return newOpenAIProvider("openai", openAIAPIBase, s)
		},
	})

	RegisterProvider("openrouter", ProviderRegistration{
		DefaultModel: "openai/gpt-4o",
		EnvKey:       "OPENROUTER_API_KEY",
		EnvBase:      "OPENROUTER_API_BASE",
		Constructor: func(s Settings) Provider {
			return newOpenAIProvider("openrouter", openRouterAPIBase, s,
				oaioption.WithHeader("HTTP-Referer", "https://github.com/linanwx/serifu"),
				oaioption.WithHeader("X-Title", "serifu"),
			)
		},
	})
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	providerName string
	apiBase      string
	modelName    string
	maxTokens    int
	temperature  float64
	extraBody    map[string]any
	client       openai.Client
}

func newOpenAIProvider(providerName, defaultBase string, s Settings, extra ...oaioption.RequestOption) *OpenAIProvider {
	baseURL := normalizeBaseURL(s.APIBase, defaultBase)
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(s.APIKey),
		oaioption.WithBaseURL(baseURL),
		oaioption.WithMaxRetries(sdkMaxRetries),
	}
	opts = append(opts, extra...)

	return &OpenAIProvider{
		providerName: providerName,
		apiBase:      baseURL,
		modelName:    s.Model,
		maxTokens:    s.MaxTokens,
		temperature:  s.Temperature,
		extraBody:    s.ExtraBody,
		client:       openai.NewClient(opts...),
	}
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	logger.Info(
		"provider request",
		"provider", p.providerName,
		"modelName", p.modelName,
		"messageCount", len(req.Messages),
		"inputChars", inputChars(req.Messages),
	)

	chatReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.modelName),
		Messages: toOpenAIChatMessages(req.Messages),
	}
	if p.maxTokens > 0 {
		chatReq.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if p.temperature != 0 {
		chatReq.Temperature = openai.Float(p.temperature)
	}

	chatResp, err := p.client.Chat.Completions.New(ctx, chatReq, extraBodyOptions(p.extraBody)...)
	if err != nil {
		logger.Error("provider request send error", "provider", p.providerName, "err", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		logger.Error("provider no choices", "provider", p.providerName)
		return nil, ErrNoChoices
	}

	choice := chatResp.Choices[0]
	logger.Info(
		"provider response",
		"provider", p.providerName,
		"modelName", p.modelName,
		"finishReason", choice.FinishReason,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
		"totalTokens", chatResp.Usage.TotalTokens,
		"outputChars", len(choice.Message.Content),
		"latencyMs", time.Since(start).Milliseconds(),
	)

	return &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(chatResp.Usage.PromptTokens),
			CompletionTokens: int(chatResp.Usage.CompletionTokens),
			TotalTokens:      int(chatResp.Usage.TotalTokens),
		},
	}, nil
}

func toOpenAIChatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// extraBodyOptions turns configured extra fields into JSON set options.
// Keys are sorted so requests are reproducible.
func extraBodyOptions(extra map[string]any) []oaioption.RequestOption {
	if len(extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]oaioption.RequestOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, oaioption.WithJSONSet(k, extra[k]))
	}
	return opts
}
