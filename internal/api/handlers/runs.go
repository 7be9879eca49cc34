package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/metrics"
	"github.com/promptgov/promptgov/internal/models"
	"github.com/promptgov/promptgov/internal/queue"
	"github.com/promptgov/promptgov/internal/storage"
)

type RunHandler struct {
	store        *storage.Store
	cache        cache.Cache
	dispatcher   queue.Dispatcher
	documentsDir string
}

func NewRunHandler(store *storage.Store, c cache.Cache, d queue.Dispatcher, documentsDir string) *RunHandler {
	return &RunHandler{store: store, cache: c, dispatcher: d, documentsDir: documentsDir}
}

type runCreateRequest struct {
	PromptID     string `json:"prompt_id"`
	ConfigID     string `json:"config_id"`
	DocumentName string `json:"document_name"`
}

type runListResponse struct {
	Runs       []map[string]any `json:"runs"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req runCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PromptID == "" || req.ConfigID == "" || req.DocumentName == "" {
		writeError(w, http.StatusBadRequest, "prompt_id, config_id and document_name are required")
		return
	}
	if !safeDocumentName(req.DocumentName) {
		writeError(w, http.StatusBadRequest, "invalid document name")
		return
	}

	promptID := storage.NormalizeID(req.PromptID)
	configID := storage.NormalizeID(req.ConfigID)

	if !h.store.Exists(storage.CollectionPrompts, promptID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Prompt '%s' not found", req.PromptID))
		return
	}
	if !h.store.Exists(storage.CollectionConfigs, configID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Config '%s' not found", req.ConfigID))
		return
	}
	if !h.documentExists(req.DocumentName) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Document '%s' not found", req.DocumentName))
		return
	}

	run := models.Run{
		ID:           storage.GenerateID(),
		PromptID:     promptID,
		ConfigID:     configID,
		DocumentName: req.DocumentName,
		Status:       models.StatusPending,
		StartedAt:    time.Now().UTC(),
	}

	if err := h.store.Save(storage.CollectionRuns, run.ID, &run); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.UpsertIndexEntry(storage.CollectionRuns, run.IndexEntry()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.InvalidateNamespace(r.Context(), "runs")

	payload := queue.RunExecutePayload{
		RunID:        run.ID,
		PromptID:     promptID,
		ConfigID:     configID,
		DocumentName: req.DocumentName,
	}
	if err := h.dispatcher.Dispatch(r.Context(), payload); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to queue run: %v", err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":  run.ID,
		"status":  models.StatusPending,
		"message": "Run queued for execution",
	})
}

// safeDocumentName rejects names that could escape the documents directory.
func safeDocumentName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return false
	}
	return true
}

// documentExists mirrors the executor's resolution: the exact name first,
// then common extensions when the name has none.
func (h *RunHandler) documentExists(name string) bool {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range []string{".pdf", ".txt", ".text"} {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(h.documentsDir, c)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	filters := map[string]string{
		"prompt_id":     q.Get("prompt_id"),
		"config_id":     q.Get("config_id"),
		"document_name": q.Get("document_name"),
		"status":        q.Get("status"),
	}

	cacheKey := fmt.Sprintf("page=%d:size=%d:p=%s:c=%s:d=%s:s=%s",
		page, pageSize, filters["prompt_id"], filters["config_id"], filters["document_name"], filters["status"])

	var cached runListResponse
	if hit, _ := h.cache.Get(r.Context(), "runs", cacheKey, &cached); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	idx, err := h.store.LoadIndex(storage.CollectionRuns)
	if err != nil {
		writeStorageError(w, err, "runs index not found")
		return
	}

	items := filterRuns(idx.Items, filters)
	total := len(items)
	pageItems, page, totalPages := paginate(items, page, pageSize)

	resp := runListResponse{
		Runs:       pageItems,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	h.cache.Set(r.Context(), "runs", cacheKey, resp, cache.RunListTTL)
	writeJSON(w, http.StatusOK, resp)
}

func filterRuns(items []map[string]any, filters map[string]string) []map[string]any {
	filtered := []map[string]any{}
	for _, item := range items {
		match := true
		for field, want := range filters {
			if want == "" {
				continue
			}
			got, _ := item[field].(string)
			if field == "prompt_id" || field == "config_id" {
				want = storage.NormalizeID(want)
			}
			if got != want {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	var run models.Run
	if err := h.store.Load(storage.CollectionRuns, id, &run); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Run '%s' not found", id))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *RunHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	if !h.store.Exists(storage.CollectionRuns, id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Run '%s' not found", id))
		return
	}
	if err := h.store.Delete(storage.CollectionRuns, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.RemoveIndexEntry(storage.CollectionRuns, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.InvalidateNamespace(r.Context(), "runs")
	w.WriteHeader(http.StatusNoContent)
}

type metricComparison struct {
	RunA          *float64 `json:"run_a"`
	RunB          *float64 `json:"run_b"`
	Difference    *float64 `json:"difference"`
	PercentChange *float64 `json:"percent_change"`
}

type fieldDifference struct {
	Field  string `json:"field"`
	Status string `json:"status"` // same, different, only_in_a, or only_in_b
	ValueA any    `json:"value_a"`
	ValueB any    `json:"value_b"`
}

type runCompareResponse struct {
	RunAID           string                      `json:"run_a_id"`
	RunBID           string                      `json:"run_b_id"`
	Metrics          map[string]metricComparison `json:"metrics"`
	FieldDifferences []fieldDifference           `json:"field_differences"`
	Summary          map[string]any              `json:"summary"`
}

func (h *RunHandler) Compare(w http.ResponseWriter, r *http.Request) {
	idA := storage.NormalizeID(chi.URLParam(r, "id"))
	idB := storage.NormalizeID(chi.URLParam(r, "other"))

	var a, b models.Run
	if err := h.store.Load(storage.CollectionRuns, idA, &a); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Run '%s' not found", idA))
		return
	}
	if err := h.store.Load(storage.CollectionRuns, idB, &b); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Run '%s' not found", idB))
		return
	}

	fieldDiffs := compareOutputs(a.Output, b.Output)
	sameCount, diffCount := 0, 0
	for _, fd := range fieldDiffs {
		switch fd.Status {
		case "same":
			sameCount++
		default:
			diffCount++
		}
	}

	writeJSON(w, http.StatusOK, runCompareResponse{
		RunAID:           a.ID,
		RunBID:           b.ID,
		Metrics:          compareMetrics(a.Metrics, b.Metrics),
		FieldDifferences: fieldDiffs,
		Summary: map[string]any{
			"same_prompt":      a.PromptID == b.PromptID,
			"same_config":      a.ConfigID == b.ConfigID,
			"same_document":    a.DocumentName == b.DocumentName,
			"fields_same":      sameCount,
			"fields_different": diffCount,
		},
	})
}

func compareMetrics(a, b *metrics.Result) map[string]metricComparison {
	pick := func(res *metrics.Result, name string) *float64 {
		if res == nil {
			return nil
		}
		var v float64
		switch name {
		case "recall":
			v = res.Recall
		case "precision":
			v = res.Precision
		case "f1":
			v = res.F1
		case "latency_ms":
			v = float64(res.LatencyMs)
		}
		return &v
	}

	out := make(map[string]metricComparison, 4)
	for _, name := range []string{"recall", "precision", "f1", "latency_ms"} {
		va, vb := pick(a, name), pick(b, name)
		cmp := metricComparison{RunA: va, RunB: vb}
		if va != nil && vb != nil {
			diff := round4(*vb - *va)
			cmp.Difference = &diff
			if *va != 0 {
				pct := round2((*vb - *va) / *va * 100)
				cmp.PercentChange = &pct
			}
		}
		out[name] = cmp
	}
	return out
}

// compareOutputs flags each top-level key as same, different, or present in
// only one run's output.
func compareOutputs(outA, outB map[string]any) []fieldDifference {
	keys := map[string]bool{}
	for k := range outA {
		keys[k] = true
	}
	for k := range outB {
		keys[k] = true
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	diffs := []fieldDifference{}
	for _, k := range sorted {
		va, inA := outA[k]
		vb, inB := outB[k]
		fd := fieldDifference{Field: k, ValueA: va, ValueB: vb}
		switch {
		case inA && !inB:
			fd.Status = "only_in_a"
		case !inA && inB:
			fd.Status = "only_in_b"
		case equalJSONValues(va, vb):
			fd.Status = "same"
		default:
			fd.Status = "different"
		}
		diffs = append(diffs, fd)
	}
	return diffs
}

// equalJSONValues compares values by their canonical JSON encoding, which
// handles nested maps and slices uniformly.
func equalJSONValues(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}

func round2(f float64) float64 {
	return math.Round(f*1e2) / 1e2
}
