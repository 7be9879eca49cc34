package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/models"
	"github.com/promptgov/promptgov/internal/storage"
)

type PromptHandler struct {
	store *storage.Store
	cache cache.Cache
}

func NewPromptHandler(store *storage.Store, c cache.Cache) *PromptHandler {
	return &PromptHandler{store: store, cache: c}
}

type promptCreateRequest struct {
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	Blocks      []models.PromptBlock `json:"blocks"`
	ParentID    *string              `json:"parent_id"`
	Tags        []string             `json:"tags"`
}

type promptUpdateRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Blocks      *[]models.PromptBlock `json:"blocks"`
	Tags        *[]string             `json:"tags"`
}

type promptListResponse struct {
	Prompts    []map[string]any `json:"prompts"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	tags := r.URL.Query()["tag"]
	parentID := r.URL.Query().Get("parent_id")
	if parentID != "" {
		parentID = storage.NormalizeID(parentID)
	}

	sortedTags := append([]string(nil), tags...)
	sort.Strings(sortedTags)
	cacheKey := fmt.Sprintf("page=%d:size=%d:tags=%s:parent=%s", page, pageSize, strings.Join(sortedTags, ","), parentID)

	var cached promptListResponse
	if hit, _ := h.cache.Get(r.Context(), "prompts", cacheKey, &cached); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	idx, err := h.store.LoadIndex(storage.CollectionPrompts)
	if err != nil {
		writeStorageError(w, err, "prompts index not found")
		return
	}

	items := idx.Items
	if len(tags) > 0 {
		items = filterByTags(items, tags)
	}
	if parentID != "" {
		items = filterByParent(items, parentID)
	}

	total := len(items)
	pageItems, page, totalPages := paginate(items, page, pageSize)

	resp := promptListResponse{
		Prompts:    pageItems,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	h.cache.Set(r.Context(), "prompts", cacheKey, resp, cache.PromptListTTL)
	writeJSON(w, http.StatusOK, resp)
}

// filterByTags keeps items sharing at least one tag with the filter,
// compared case-insensitively.
func filterByTags(items []map[string]any, tags []string) []map[string]any {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	var filtered []map[string]any
	for _, item := range items {
		itemTags, _ := item["tags"].([]any)
		for _, t := range itemTags {
			s, _ := t.(string)
			if want[strings.ToLower(s)] {
				filtered = append(filtered, item)
				break
			}
		}
	}
	if filtered == nil {
		filtered = []map[string]any{}
	}
	return filtered
}

func filterByParent(items []map[string]any, parentID string) []map[string]any {
	filtered := []map[string]any{}
	for _, item := range items {
		p, _ := item["parent_id"].(string)
		if p == parentID {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	var prompt models.PromptVersion
	if err := h.store.Load(storage.CollectionPrompts, id, &prompt); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Prompt '%s' not found", id))
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req promptCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	if req.Blocks == nil {
		req.Blocks = []models.PromptBlock{}
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	prompt := models.PromptVersion{
		ID:          storage.GenerateID(),
		Name:        req.Name,
		Description: req.Description,
		Blocks:      req.Blocks,
		CreatedAt:   time.Now().UTC(),
		ParentID:    req.ParentID,
		Tags:        req.Tags,
	}

	if err := h.savePrompt(r, &prompt); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, prompt)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	var prompt models.PromptVersion
	if err := h.store.Load(storage.CollectionPrompts, id, &prompt); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Prompt '%s' not found", id))
		return
	}

	var req promptUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		prompt.Name = *req.Name
	}
	if req.Description != nil {
		prompt.Description = req.Description
	}
	if req.Blocks != nil {
		prompt.Blocks = *req.Blocks
	}
	if req.Tags != nil {
		prompt.Tags = *req.Tags
	}

	if err := h.savePrompt(r, &prompt); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	if !h.store.Exists(storage.CollectionPrompts, id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Prompt '%s' not found", id))
		return
	}
	if err := h.store.Delete(storage.CollectionPrompts, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.RemoveIndexEntry(storage.CollectionPrompts, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.InvalidateNamespace(r.Context(), "prompts")
	w.WriteHeader(http.StatusNoContent)
}

func (h *PromptHandler) savePrompt(r *http.Request, prompt *models.PromptVersion) error {
	if err := h.store.Save(storage.CollectionPrompts, prompt.ID, prompt); err != nil {
		return err
	}
	if err := h.store.UpsertIndexEntry(storage.CollectionPrompts, prompt.IndexEntry()); err != nil {
		return err
	}
	h.cache.InvalidateNamespace(r.Context(), "prompts")
	return nil
}

type blockDiff struct {
	Index    int                 `json:"index"`
	Status   string              `json:"status"` // added, removed, or modified
	OldBlock *models.PromptBlock `json:"old_block"`
	NewBlock *models.PromptBlock `json:"new_block"`
}

type promptDiffResponse struct {
	PromptAID          string      `json:"prompt_a_id"`
	PromptBID          string      `json:"prompt_b_id"`
	NameChanged        bool        `json:"name_changed"`
	DescriptionChanged bool        `json:"description_changed"`
	TagsChanged        bool        `json:"tags_changed"`
	BlocksDiff         []blockDiff `json:"blocks_diff"`
}

func (h *PromptHandler) Diff(w http.ResponseWriter, r *http.Request) {
	idA := storage.NormalizeID(chi.URLParam(r, "id"))
	idB := storage.NormalizeID(chi.URLParam(r, "other"))

	var a, b models.PromptVersion
	if err := h.store.Load(storage.CollectionPrompts, idA, &a); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Prompt '%s' not found", idA))
		return
	}
	if err := h.store.Load(storage.CollectionPrompts, idB, &b); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Prompt '%s' not found", idB))
		return
	}

	writeJSON(w, http.StatusOK, promptDiffResponse{
		PromptAID:          idA,
		PromptBID:          idB,
		NameChanged:        a.Name != b.Name,
		DescriptionChanged: !equalOptString(a.Description, b.Description),
		TagsChanged:        !equalTagSets(a.Tags, b.Tags),
		BlocksDiff:         compareBlocks(a.Blocks, b.Blocks),
	})
}

// compareBlocks diffs block lists position by position.
func compareBlocks(blocksA, blocksB []models.PromptBlock) []blockDiff {
	diffs := []blockDiff{}
	maxLen := len(blocksA)
	if len(blocksB) > maxLen {
		maxLen = len(blocksB)
	}

	for i := 0; i < maxLen; i++ {
		var oldBlock, newBlock *models.PromptBlock
		if i < len(blocksA) {
			oldBlock = &blocksA[i]
		}
		if i < len(blocksB) {
			newBlock = &blocksB[i]
		}

		switch {
		case oldBlock == nil:
			diffs = append(diffs, blockDiff{Index: i, Status: "added", NewBlock: newBlock})
		case newBlock == nil:
			diffs = append(diffs, blockDiff{Index: i, Status: "removed", OldBlock: oldBlock})
		case !equalBlocks(*oldBlock, *newBlock):
			diffs = append(diffs, blockDiff{Index: i, Status: "modified", OldBlock: oldBlock, NewBlock: newBlock})
		}
	}
	return diffs
}

func equalBlocks(a, b models.PromptBlock) bool {
	return a.Title == b.Title && a.Body == b.Body && equalOptString(a.Comment, b.Comment)
}

func equalOptString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTagSets(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for t := range setA {
		if !setB[t] {
			return false
		}
	}
	return true
}
