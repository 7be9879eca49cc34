package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/promptgov/promptgov/internal/config"
	"github.com/promptgov/promptgov/internal/metrics"
	"github.com/promptgov/promptgov/internal/models"
)

const defaultAnthropicMaxTokens = 4096

// LLM is the provider-backed Pipeline implementation. OpenRouter speaks the
// OpenAI wire protocol, so it reuses the same client with a different base
// URL.
type LLM struct {
	openai     *openai.Client
	openrouter *openai.Client
	anthropic  *anthropic.Client
}

func NewLLM(cfg config.LLMConfig) *LLM {
	p := &LLM{}
	if cfg.OpenAIKey != "" {
		p.openai = openai.NewClient(cfg.OpenAIKey)
	}
	if cfg.OpenRouterKey != "" {
		orCfg := openai.DefaultConfig(cfg.OpenRouterKey)
		orCfg.BaseURL = cfg.OpenRouterBaseURL
		p.openrouter = openai.NewClientWithConfig(orCfg)
	}
	if cfg.AnthropicKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
		p.anthropic = &client
	}
	return p
}

func (p *LLM) Extract(ctx context.Context, prompt *models.PromptVersion, cfg *models.ModelConfig, document string) (*Result, error) {
	params := BuildModelParams(cfg)
	system := renderPrompt(prompt)
	start := time.Now()

	var (
		raw *Result
		err error
	)
	switch cfg.Provider {
	case models.ProviderOpenAI:
		raw, err = p.extractOpenAI(ctx, p.openai, params, system, document)
	case models.ProviderOpenRouter:
		raw, err = p.extractOpenAI(ctx, p.openrouter, params, system, document)
	case models.ProviderAnthropic:
		raw, err = p.extractAnthropic(ctx, params, system, document)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	raw.LatencyMs = time.Since(start).Milliseconds()
	raw.Tokens = metrics.ExtractTokenUsage(raw.RawResponse)
	return raw, nil
}

func (p *LLM) extractOpenAI(ctx context.Context, client *openai.Client, params map[string]any, system, document string) (*Result, error) {
	if client == nil {
		return nil, fmt.Errorf("provider not configured: missing API key")
	}

	req := openai.ChatCompletionRequest{
		Model: paramString(params, "model"),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: document},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if t, ok := params["temperature"].(float64); ok && t > 0 {
		req.Temperature = float32(t)
	}
	if mt, ok := params["max_tokens"].(int); ok {
		req.MaxTokens = mt
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	output, err := parseOutput(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output: output,
		RawResponse: map[string]any{
			"id":    resp.ID,
			"model": resp.Model,
			"usage": map[string]any{
				"prompt_tokens":     resp.Usage.PromptTokens,
				"completion_tokens": resp.Usage.CompletionTokens,
				"total_tokens":      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

func (p *LLM) extractAnthropic(ctx context.Context, params map[string]any, system, document string) (*Result, error) {
	if p.anthropic == nil {
		return nil, fmt.Errorf("provider not configured: missing API key")
	}

	maxTokens := int64(defaultAnthropicMaxTokens)
	if mt, ok := params["max_tokens"].(int); ok {
		maxTokens = int64(mt)
	}

	msgParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(paramString(params, "model")),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(document)),
		},
	}
	if t, ok := params["temperature"].(float64); ok && t > 0 {
		msgParams.Temperature = anthropic.Float(t)
	}

	var opts []option.RequestOption
	if headers, ok := params["extra_headers"].(map[string]string); ok {
		for k, v := range headers {
			opts = append(opts, option.WithHeader(k, v))
		}
	}

	resp, err := p.anthropic.Messages.New(ctx, msgParams, opts...)
	if err != nil {
		return nil, fmt.Errorf("anthropic message: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	output, err := parseOutput(content.String())
	if err != nil {
		return nil, err
	}

	return &Result{
		Output: output,
		RawResponse: map[string]any{
			"id":    string(resp.ID),
			"model": string(resp.Model),
			"usage": map[string]any{
				"input_tokens":  resp.Usage.InputTokens,
				"output_tokens": resp.Usage.OutputTokens,
			},
		},
	}, nil
}

// renderPrompt flattens the version's blocks into one system prompt.
func renderPrompt(prompt *models.PromptVersion) string {
	var b strings.Builder
	for i, block := range prompt.Blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if block.Title != "" {
			b.WriteString("## ")
			b.WriteString(block.Title)
			b.WriteString("\n")
		}
		b.WriteString(block.Body)
	}
	return b.String()
}

// parseOutput decodes the model's reply as a JSON object, tolerating
// markdown code fences around it.
func parseOutput(content string) (map[string]any, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var output map[string]any
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return nil, fmt.Errorf("parse model output as JSON: %w", err)
	}
	return output, nil
}

func paramString(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}
