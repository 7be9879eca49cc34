package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/promptgov/promptgov/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError emits the structured error envelope shared by all endpoints.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":     message,
			"status_code": status,
		},
	})
}

// writeStorageError distinguishes a missing entity (404) from a file that
// exists but cannot be parsed (500).
func writeStorageError(w http.ResponseWriter, err error, notFoundMsg string) {
	var de *storage.DecodeError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.As(err, &de):
		writeError(w, http.StatusInternalServerError, "stored entity is corrupt: "+de.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parsePagination reads page / page_size query params with the shared
// defaults and bounds (page >= 1, page_size in [1, 100]).
func parsePagination(r *http.Request) (page, pageSize int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(r, "page_size", 50)
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// paginate slices items for the requested page and clamps page into range.
func paginate(items []map[string]any, page, pageSize int) (pageItems []map[string]any, clampedPage, totalPages int) {
	total := len(items)
	totalPages = 1
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return items[start:end], page, totalPages
}
