package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptgov/promptgov/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestBuildModelParamsBase(t *testing.T) {
	cfg := &models.ModelConfig{
		Provider:    models.ProviderOpenAI,
		ModelID:     "gpt-4o",
		Temperature: 0.2,
		MaxTokens:   intPtr(1024),
	}

	params := BuildModelParams(cfg)

	assert.Equal(t, "gpt-4o", params["model"])
	assert.Equal(t, 0.2, params["temperature"])
	assert.Equal(t, 1024, params["max_tokens"])
	assert.NotContains(t, params, "reasoning_effort")
}

func TestBuildModelParamsOpenAIReasoningOnlyForReasoningModels(t *testing.T) {
	cfg := &models.ModelConfig{
		Provider:        models.ProviderOpenAI,
		ModelID:         "gpt-4o",
		ReasoningEffort: strPtr("high"),
	}
	params := BuildModelParams(cfg)
	assert.NotContains(t, params, "reasoning_effort")

	cfg.ModelID = "o1-preview"
	params = BuildModelParams(cfg)
	assert.Equal(t, "high", params["reasoning_effort"])

	cfg.ModelID = "o3-mini"
	params = BuildModelParams(cfg)
	assert.Equal(t, "high", params["reasoning_effort"])
}

func TestBuildModelParamsAnthropicReasoningHeader(t *testing.T) {
	cfg := &models.ModelConfig{
		Provider:        models.ProviderAnthropic,
		ModelID:         "claude-3-opus-20240229",
		ReasoningEffort: strPtr("medium"),
	}

	params := BuildModelParams(cfg)

	headers, ok := params["extra_headers"].(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "medium", headers["anthropic-reasoning-effort"])
}

func TestBuildModelParamsOpenRouterReasoning(t *testing.T) {
	cfg := &models.ModelConfig{
		Provider:        models.ProviderOpenRouter,
		ModelID:         "openai/o1",
		ReasoningEffort: strPtr("low"),
	}

	params := BuildModelParams(cfg)

	reasoning, ok := params["reasoning"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "low", reasoning["effort"])
}

func TestBuildModelParamsExtraParamsOverride(t *testing.T) {
	cfg := &models.ModelConfig{
		Provider:    models.ProviderOpenAI,
		ModelID:     "gpt-4o",
		Temperature: 0.7,
		ExtraParams: map[string]any{
			"temperature": 0.0,
			"top_p":       0.9,
		},
	}

	params := BuildModelParams(cfg)

	assert.Equal(t, 0.0, params["temperature"])
	assert.Equal(t, 0.9, params["top_p"])
}

func TestRegisterProviderCustomTransform(t *testing.T) {
	RegisterProvider("testprov", func(cfg *models.ModelConfig, params map[string]any) {
		params["custom"] = true
	})
	defer delete(providerTransforms, "testprov")

	params := BuildModelParams(&models.ModelConfig{Provider: "testprov", ModelID: "x"})

	assert.Equal(t, true, params["custom"])
}
