package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/models"
	"github.com/promptgov/promptgov/internal/storage"
)

type ConfigHandler struct {
	store *storage.Store
	cache cache.Cache
}

func NewConfigHandler(store *storage.Store, c cache.Cache) *ConfigHandler {
	return &ConfigHandler{store: store, cache: c}
}

type configCreateRequest struct {
	Name            string         `json:"name"`
	Provider        string         `json:"provider"`
	ModelID         string         `json:"model_id"`
	ReasoningEffort *string        `json:"reasoning_effort"`
	Temperature     *float64       `json:"temperature"`
	MaxTokens       *int           `json:"max_tokens"`
	ExtraParams     map[string]any `json:"extra_params"`
}

type configUpdateRequest struct {
	Name            *string         `json:"name"`
	Provider        *string         `json:"provider"`
	ModelID         *string         `json:"model_id"`
	ReasoningEffort *string         `json:"reasoning_effort"`
	Temperature     *float64        `json:"temperature"`
	MaxTokens       *int            `json:"max_tokens"`
	ExtraParams     *map[string]any `json:"extra_params"`
}

type configListResponse struct {
	Configs    []map[string]any `json:"configs"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	cacheKey := fmt.Sprintf("page=%d:size=%d", page, pageSize)

	var cached configListResponse
	if hit, _ := h.cache.Get(r.Context(), "configs", cacheKey, &cached); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	idx, err := h.store.LoadIndex(storage.CollectionConfigs)
	if err != nil {
		writeStorageError(w, err, "configs index not found")
		return
	}

	total := len(idx.Items)
	pageItems, page, totalPages := paginate(idx.Items, page, pageSize)

	resp := configListResponse{
		Configs:    pageItems,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	h.cache.Set(r.Context(), "configs", cacheKey, resp, cache.ConfigListTTL)
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	var cfg models.ModelConfig
	if err := h.store.Load(storage.CollectionConfigs, id, &cfg); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Config '%s' not found", id))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req configCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	cfg := models.ModelConfig{
		ID:              storage.GenerateID(),
		Name:            req.Name,
		Provider:        req.Provider,
		ModelID:         req.ModelID,
		ReasoningEffort: req.ReasoningEffort,
		Temperature:     temperature,
		MaxTokens:       req.MaxTokens,
		ExtraParams:     req.ExtraParams,
		CreatedAt:       time.Now().UTC(),
	}

	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.saveConfig(r, &cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	var cfg models.ModelConfig
	if err := h.store.Load(storage.CollectionConfigs, id, &cfg); err != nil {
		writeStorageError(w, err, fmt.Sprintf("Config '%s' not found", id))
		return
	}

	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.Provider != nil {
		cfg.Provider = *req.Provider
	}
	if req.ModelID != nil {
		cfg.ModelID = *req.ModelID
	}
	if req.ReasoningEffort != nil {
		cfg.ReasoningEffort = req.ReasoningEffort
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = req.MaxTokens
	}
	if req.ExtraParams != nil {
		cfg.ExtraParams = *req.ExtraParams
	}

	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.saveConfig(r, &cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := storage.NormalizeID(chi.URLParam(r, "id"))
	if !h.store.Exists(storage.CollectionConfigs, id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Config '%s' not found", id))
		return
	}
	if err := h.store.Delete(storage.CollectionConfigs, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.RemoveIndexEntry(storage.CollectionConfigs, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cache.InvalidateNamespace(r.Context(), "configs")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConfigHandler) saveConfig(r *http.Request, cfg *models.ModelConfig) error {
	if err := h.store.Save(storage.CollectionConfigs, cfg.ID, cfg); err != nil {
		return err
	}
	if err := h.store.UpsertIndexEntry(storage.CollectionConfigs, cfg.IndexEntry()); err != nil {
		return err
	}
	h.cache.InvalidateNamespace(r.Context(), "configs")
	return nil
}
