package metrics

// TokenUsage is the normalized token-count shape stored on a run.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// ExtractTokenUsage normalizes the "usage" section of a raw provider
// response. It understands the OpenAI shape (prompt_tokens/completion_tokens),
// the Anthropic shape (input_tokens/output_tokens, total computed by sum) and
// a generic input/output/total fallback. Fractional counts are truncated.
func ExtractTokenUsage(response map[string]any) TokenUsage {
	usage, _ := response["usage"].(map[string]any)

	var input, output, total int
	switch {
	case hasKey(usage, "prompt_tokens"):
		input = asInt(usage["prompt_tokens"])
		output = asInt(usage["completion_tokens"])
		if hasKey(usage, "total_tokens") {
			total = asInt(usage["total_tokens"])
		} else {
			total = input + output
		}
	case hasKey(usage, "input_tokens"):
		input = asInt(usage["input_tokens"])
		output = asInt(usage["output_tokens"])
		total = input + output
	default:
		input = asInt(usage["input"])
		output = asInt(usage["output"])
		if hasKey(usage, "total") {
			total = asInt(usage["total"])
		} else {
			total = input + output
		}
	}

	return TokenUsage{Input: input, Output: output, Total: total}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// asInt truncates numeric JSON values to int. Decoded JSON numbers arrive as
// float64; anything non-numeric counts as 0.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
