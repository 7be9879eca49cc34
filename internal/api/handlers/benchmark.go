package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/promptgov/promptgov/internal/cache"
)

// BenchmarkHandler serves pre-computed benchmark aggregates from a results
// file produced by offline evaluation sweeps. When the file is absent the
// endpoints return placeholder data so clients can render an empty dashboard.
type BenchmarkHandler struct {
	cache      cache.Cache
	resultFile string
}

func NewBenchmarkHandler(c cache.Cache, resultFile string) *BenchmarkHandler {
	return &BenchmarkHandler{cache: c, resultFile: resultFile}
}

type benchmarkResults struct {
	Summary   map[string]any   `json:"summary"`
	Documents []map[string]any `json:"documents"`
	Fields    []map[string]any `json:"fields"`
}

func (h *BenchmarkHandler) Summary(w http.ResponseWriter, r *http.Request) {
	results, err := h.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results.Summary)
}

func (h *BenchmarkHandler) Documents(w http.ResponseWriter, r *http.Request) {
	results, err := h.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": results.Documents,
		"total":     len(results.Documents),
	})
}

func (h *BenchmarkHandler) Fields(w http.ResponseWriter, r *http.Request) {
	results, err := h.load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields": results.Fields,
		"total":  len(results.Fields),
	})
}

func (h *BenchmarkHandler) load(r *http.Request) (*benchmarkResults, error) {
	var cached benchmarkResults
	if hit, _ := h.cache.Get(r.Context(), "benchmark", "results", &cached); hit {
		return &cached, nil
	}

	results := placeholderResults()
	data, err := os.ReadFile(h.resultFile)
	if err == nil {
		var parsed benchmarkResults
		if jsonErr := json.Unmarshal(data, &parsed); jsonErr == nil {
			results = &parsed
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if results.Summary == nil {
		results.Summary = map[string]any{}
	}
	if results.Documents == nil {
		results.Documents = []map[string]any{}
	}
	if results.Fields == nil {
		results.Fields = []map[string]any{}
	}

	h.cache.Set(r.Context(), "benchmark", "results", results, cache.BenchmarkTTL)
	return results, nil
}

func placeholderResults() *benchmarkResults {
	return &benchmarkResults{
		Summary: map[string]any{
			"total_runs":     0,
			"avg_recall":     0.0,
			"avg_precision":  0.0,
			"avg_f1":         0.0,
			"total_cost_usd": 0.0,
		},
		Documents: []map[string]any{},
		Fields:    []map[string]any{},
	}
}
