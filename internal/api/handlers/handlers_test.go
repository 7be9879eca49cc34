package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/promptgov/promptgov/internal/cache"
	"github.com/promptgov/promptgov/internal/queue"
	"github.com/promptgov/promptgov/internal/storage"
)

// recordingDispatcher captures dispatched payloads instead of executing.
type recordingDispatcher struct {
	payloads []queue.RunExecutePayload
}

func (d *recordingDispatcher) Dispatch(_ context.Context, payload queue.RunExecutePayload) error {
	d.payloads = append(d.payloads, payload)
	return nil
}

type env struct {
	store        *storage.Store
	cache        cache.Cache
	dispatcher   *recordingDispatcher
	documentsDir string
	router       *chi.Mux
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:        storage.New(t.TempDir()),
		cache:        cache.NewMemory(),
		dispatcher:   &recordingDispatcher{},
		documentsDir: t.TempDir(),
	}

	promptH := NewPromptHandler(e.store, e.cache)
	configH := NewConfigHandler(e.store, e.cache)
	runH := NewRunHandler(e.store, e.cache, e.dispatcher, e.documentsDir)
	docH := NewDocumentHandler(e.cache, e.documentsDir)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptH.List)
			r.Post("/", promptH.Create)
			r.Get("/{id}", promptH.Get)
			r.Patch("/{id}", promptH.Update)
			r.Delete("/{id}", promptH.Delete)
			r.Get("/{id}/diff/{other}", promptH.Diff)
		})
		r.Route("/configs", func(r chi.Router) {
			r.Get("/", configH.List)
			r.Post("/", configH.Create)
			r.Get("/{id}", configH.Get)
			r.Patch("/{id}", configH.Update)
			r.Delete("/{id}", configH.Delete)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runH.List)
			r.Post("/", runH.Create)
			r.Get("/{id}", runH.Get)
			r.Delete("/{id}", runH.Delete)
			r.Get("/{id}/compare/{other}", runH.Compare)
		})
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", docH.List)
			r.Get("/{name}", docH.Get)
			r.Head("/{name}", docH.Head)
		})
	})
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func (e *env) addDocument(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.documentsDir, name), []byte(content), 0o644))
}

func (e *env) createPrompt(t *testing.T, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{
		"name": name,
		"blocks": []map[string]any{
			{"title": "Task", "body": "Extract fields."},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func (e *env) createConfig(t *testing.T, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/configs/", map[string]any{
		"name":     name,
		"provider": "openai",
		"model_id": "gpt-4o",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	return created.ID
}
