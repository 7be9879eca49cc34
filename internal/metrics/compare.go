// Package metrics scores extraction output against ground truth and
// estimates run cost from token usage.
package metrics

import (
	"math"
	"sort"
	"strings"
)

// Result holds field-level accuracy metrics for one extraction.
// Ratios are rounded to 6 decimal places.
type Result struct {
	Recall            float64  `json:"recall"`
	Precision         float64  `json:"precision"`
	F1                float64  `json:"f1"`
	MissingFields     []string `json:"missing_fields"`
	ExtraFields       []string `json:"extra_fields"`
	TotalGTFields     int      `json:"total_gt_fields"`
	TotalOutputFields int      `json:"total_output_fields"`
	MatchedFields     int      `json:"matched_fields"`
	LatencyMs         int64    `json:"latency_ms,omitempty"`
}

// Compare scores output against ground truth at the granularity of dotted
// field paths. Only presence of a path counts; leaf values are ignored.
// Paths are matched case-insensitively with surrounding whitespace stripped.
func Compare(output, groundTruth map[string]any) *Result {
	outputFields := fieldPaths(output)
	gtFields := fieldPaths(groundTruth)

	matched := 0
	var missing, extra []string
	for f := range gtFields {
		if _, ok := outputFields[f]; ok {
			matched++
		} else {
			missing = append(missing, f)
		}
	}
	for f := range outputFields {
		if _, ok := gtFields[f]; !ok {
			extra = append(extra, f)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var recall, precision, f1 float64
	if len(gtFields) > 0 {
		recall = float64(matched) / float64(len(gtFields))
	}
	if len(outputFields) > 0 {
		precision = float64(matched) / float64(len(outputFields))
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	if missing == nil {
		missing = []string{}
	}
	if extra == nil {
		extra = []string{}
	}

	return &Result{
		Recall:            round6(recall),
		Precision:         round6(precision),
		F1:                round6(f1),
		MissingFields:     missing,
		ExtraFields:       extra,
		TotalGTFields:     len(gtFields),
		TotalOutputFields: len(outputFields),
		MatchedFields:     matched,
	}
}

// fieldPaths flattens a nested document into the set of normalized dotted
// paths it contains. Every key at every depth contributes a path, so a
// document {"a": {"b": 1}} yields both "a" and "a.b".
func fieldPaths(data map[string]any) map[string]struct{} {
	fields := make(map[string]struct{})
	collectFields(data, "", fields)
	return fields
}

func collectFields(data map[string]any, prefix string, fields map[string]struct{}) {
	for key, value := range data {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		fields[normalizeField(path)] = struct{}{}
		if child, ok := value.(map[string]any); ok {
			collectFields(child, path, fields)
		}
	}
}

func normalizeField(field string) string {
	return strings.ToLower(strings.TrimSpace(field))
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
