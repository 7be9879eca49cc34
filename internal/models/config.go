package models

import (
	"fmt"
	"time"
)

// Providers the executor knows how to build parameters for.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

// ModelConfig describes which model to run and how: provider, model id,
// sampling parameters and free-form extra_params that are merged last and
// may override any computed parameter.
type ModelConfig struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Provider        string         `json:"provider"`
	ModelID         string         `json:"model_id"`
	ReasoningEffort *string        `json:"reasoning_effort"`
	Temperature     float64        `json:"temperature"`
	MaxTokens       *int           `json:"max_tokens"`
	ExtraParams     map[string]any `json:"extra_params"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Validate checks the provider, temperature range, max_tokens and
// reasoning_effort constraints.
func (c *ModelConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter:
	default:
		return fmt.Errorf("provider must be one of: openai, anthropic, openrouter (got %q)", c.Provider)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0 (got %g)", c.Temperature)
	}
	if c.MaxTokens != nil && *c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be >= 1 (got %d)", *c.MaxTokens)
	}
	if c.ReasoningEffort != nil {
		switch *c.ReasoningEffort {
		case "low", "medium", "high":
		default:
			return fmt.Errorf("reasoning_effort must be 'low', 'medium', or 'high' (got %q)", *c.ReasoningEffort)
		}
	}
	return nil
}

// IndexEntry returns the lightweight metadata mirrored into the configs
// collection index.
func (c *ModelConfig) IndexEntry() map[string]any {
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"provider":   c.Provider,
		"model_id":   c.ModelID,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
