// Package pipeline is the extraction collaborator boundary: it turns a
// prompt, a model config and a document into structured output plus token
// accounting. The executor treats it as opaque.
package pipeline

import (
	"context"

	"github.com/promptgov/promptgov/internal/metrics"
	"github.com/promptgov/promptgov/internal/models"
)

// Result is what one extraction call produces.
type Result struct {
	// Output is the extracted document structure.
	Output map[string]any
	// Tokens is the normalized token usage for the call.
	Tokens metrics.TokenUsage
	// RawResponse preserves the provider-shaped response, including the
	// usage section in the provider's own key naming.
	RawResponse map[string]any
	LatencyMs   int64
}

// Pipeline runs one extraction. Implementations may take arbitrary
// wall-clock time; callers bound them with the context.
type Pipeline interface {
	Extract(ctx context.Context, prompt *models.PromptVersion, cfg *models.ModelConfig, document string) (*Result, error)
}
