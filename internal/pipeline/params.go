package pipeline

import (
	"strings"

	"github.com/promptgov/promptgov/internal/models"
)

// ParamTransform shapes the base parameter map for one provider. Transforms
// must be pure: no I/O, no mutation beyond the params map.
type ParamTransform func(cfg *models.ModelConfig, params map[string]any)

// providerTransforms is the single place provider divergence is encoded.
// New providers register a transform here; call sites stay untouched.
var providerTransforms = map[string]ParamTransform{
	models.ProviderOpenAI:     openAIParams,
	models.ProviderAnthropic:  anthropicParams,
	models.ProviderOpenRouter: openRouterParams,
}

// RegisterProvider adds or replaces the parameter transform for a provider.
func RegisterProvider(provider string, transform ParamTransform) {
	providerTransforms[provider] = transform
}

// reasoningModelPrefixes marks OpenAI model families that accept the
// reasoning_effort parameter natively.
var reasoningModelPrefixes = []string{"o1", "o3"}

// BuildModelParams converts a ModelConfig into the provider-shaped API
// parameter map. extra_params are merged last and may override anything,
// including computed keys like temperature.
func BuildModelParams(cfg *models.ModelConfig) map[string]any {
	params := map[string]any{
		"model":       cfg.ModelID,
		"temperature": cfg.Temperature,
	}
	if cfg.MaxTokens != nil {
		params["max_tokens"] = *cfg.MaxTokens
	}

	if transform, ok := providerTransforms[cfg.Provider]; ok {
		transform(cfg, params)
	}

	for k, v := range cfg.ExtraParams {
		params[k] = v
	}
	return params
}

func openAIParams(cfg *models.ModelConfig, params map[string]any) {
	if cfg.ReasoningEffort == nil {
		return
	}
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(cfg.ModelID, prefix) {
			params["reasoning_effort"] = *cfg.ReasoningEffort
			return
		}
	}
}

func anthropicParams(cfg *models.ModelConfig, params map[string]any) {
	// Anthropic has no native reasoning_effort parameter; record it as an
	// out-of-band tracking header instead.
	if cfg.ReasoningEffort != nil {
		params["extra_headers"] = map[string]string{
			"anthropic-reasoning-effort": *cfg.ReasoningEffort,
		}
	}
}

func openRouterParams(cfg *models.ModelConfig, params map[string]any) {
	if cfg.ReasoningEffort != nil {
		params["reasoning"] = map[string]any{"effort": *cfg.ReasoningEffort}
	}
}
