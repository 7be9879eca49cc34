package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/models"
)

type DocumentHandler struct {
	cache        cache.Cache
	documentsDir string
}

func NewDocumentHandler(c cache.Cache, documentsDir string) *DocumentHandler {
	return &DocumentHandler{cache: c, documentsDir: documentsDir}
}

type documentListResponse struct {
	Documents []models.DocumentInfo `json:"documents"`
	Total     int                   `json:"total"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	extFilter := strings.ToLower(r.URL.Query().Get("extension"))
	if extFilter != "" && !strings.HasPrefix(extFilter, ".") {
		extFilter = "." + extFilter
	}

	cacheKey := "ext=" + extFilter
	var cached documentListResponse
	if hit, _ := h.cache.Get(r.Context(), "documents", cacheKey, &cached); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := os.ReadDir(h.documentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, documentListResponse{Documents: []models.DocumentInfo{}})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	docs := []models.DocumentInfo{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := documentInfo(h.documentsDir, entry.Name())
		if err != nil {
			continue
		}
		if extFilter != "" && info.Extension != extFilter {
			continue
		}
		docs = append(docs, *info)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	resp := documentListResponse{Documents: docs, Total: len(docs)}
	h.cache.Set(r.Context(), "documents", cacheKey, resp, cache.DocumentListTTL)
	writeJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !safeDocumentName(name) {
		writeError(w, http.StatusBadRequest, "invalid document name")
		return
	}
	info, err := documentInfo(h.documentsDir, name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Document '%s' not found", name))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Head reports existence without a body, for cheap client-side checks.
func (h *DocumentHandler) Head(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !safeDocumentName(name) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := documentInfo(h.documentsDir, name); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func documentInfo(dir, name string) (*models.DocumentInfo, error) {
	stat, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, os.ErrNotExist
	}

	ext := strings.ToLower(filepath.Ext(name))
	docType := "text"
	if ext == ".pdf" {
		docType = "pdf"
	}

	return &models.DocumentInfo{
		Name:       name,
		Size:       stat.Size(),
		Type:       docType,
		Extension:  ext,
		ModifiedAt: stat.ModTime().UTC(),
	}, nil
}
