package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgov/promptgov/internal/models"
)

func TestRenderPrompt(t *testing.T) {
	prompt := &models.PromptVersion{
		Blocks: []models.PromptBlock{
			{Title: "Task", Body: "Extract fields."},
			{Title: "Format", Body: "Reply with JSON."},
		},
	}

	rendered := renderPrompt(prompt)

	assert.Equal(t, "## Task\nExtract fields.\n\n## Format\nReply with JSON.", rendered)
}

func TestRenderPromptUntitledBlock(t *testing.T) {
	prompt := &models.PromptVersion{
		Blocks: []models.PromptBlock{{Body: "just text"}},
	}

	assert.Equal(t, "just text", renderPrompt(prompt))
}

func TestParseOutputPlainJSON(t *testing.T) {
	out, err := parseOutput(`{"tenant": "Acme"}`)

	require.NoError(t, err)
	assert.Equal(t, "Acme", out["tenant"])
}

func TestParseOutputStripsCodeFences(t *testing.T) {
	out, err := parseOutput("```json\n{\"rent\": 1200}\n```")

	require.NoError(t, err)
	assert.Equal(t, float64(1200), out["rent"])
}

func TestParseOutputRejectsNonJSON(t *testing.T) {
	_, err := parseOutput("I could not find any fields.")

	assert.Error(t, err)
}
