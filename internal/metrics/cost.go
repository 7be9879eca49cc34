package metrics

import (
	"sort"
	"strings"
)

type pricing struct {
	input  float64 // USD per 1K input tokens
	output float64 // USD per 1K output tokens
}

// modelPricing maps model ids to per-1K-token prices in USD.
// Prices are approximate and need updating as providers change them.
var modelPricing = map[string]pricing{
	// OpenAI
	"gpt-4":                {0.03, 0.06},
	"gpt-4-turbo":          {0.01, 0.03},
	"gpt-4-turbo-preview":  {0.01, 0.03},
	"gpt-4o":               {0.005, 0.015},
	"gpt-4o-mini":          {0.00015, 0.0006},
	"gpt-3.5-turbo":        {0.0005, 0.0015},
	"gpt-3.5-turbo-0125":   {0.0005, 0.0015},

	// Anthropic
	"claude-3-opus":            {0.015, 0.075},
	"claude-3-opus-20240229":   {0.015, 0.075},
	"claude-3-sonnet":          {0.003, 0.015},
	"claude-3-sonnet-20240229": {0.003, 0.015},
	"claude-3-haiku":           {0.00025, 0.00125},
	"claude-3-haiku-20240307":  {0.00025, 0.00125},

	// Legacy
	"text-davinci-003": {0.02, 0.02},
}

// CalculateCost estimates the USD cost of a run from its token usage.
// The model id is matched exactly first; otherwise the longest known model
// id that prefixes or is contained in it wins (ties break lexically), so
// "gpt-4-0613" falls back to "gpt-4" pricing. Unknown models cost 0.
func CalculateCost(tokens TokenUsage, modelID string) float64 {
	prices, ok := modelPricing[modelID]
	if !ok {
		prices, ok = partialMatch(modelID)
	}
	if !ok {
		return 0.0
	}

	inputCost := float64(tokens.Input) / 1000 * prices.input
	outputCost := float64(tokens.Output) / 1000 * prices.output
	return round6(inputCost + outputCost)
}

func partialMatch(modelID string) (pricing, bool) {
	var candidates []string
	for known := range modelPricing {
		if strings.HasPrefix(modelID, known) || strings.Contains(modelID, known) {
			candidates = append(candidates, known)
		}
	}
	if len(candidates) == 0 {
		return pricing{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return modelPricing[candidates[0]], true
}
