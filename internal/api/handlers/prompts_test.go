package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptCreateAndGet(t *testing.T) {
	e := newEnv(t)
	id := e.createPrompt(t, "extraction-v1")

	rec := e.do(t, http.MethodGet, "/api/prompts/"+id, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var prompt struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Blocks []struct {
			Title string `json:"title"`
		} `json:"blocks"`
		Tags []string `json:"tags"`
	}
	decode(t, rec, &prompt)
	assert.Equal(t, id, prompt.ID)
	assert.Equal(t, "extraction-v1", prompt.Name)
	require.Len(t, prompt.Blocks, 1)
	assert.Equal(t, "Task", prompt.Blocks[0].Title)
	assert.NotNil(t, prompt.Tags)
}

func TestPromptCreateRequiresName(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{"blocks": []any{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromptGetNotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/prompts/deadbeefdeadbeefdeadbeefdeadbeef", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error struct {
			Message    string `json:"message"`
			StatusCode int    `json:"status_code"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	assert.Equal(t, http.StatusNotFound, body.Error.StatusCode)
	assert.Contains(t, body.Error.Message, "not found")
}

func TestPromptPartialUpdate(t *testing.T) {
	e := newEnv(t)
	id := e.createPrompt(t, "before")

	rec := e.do(t, http.MethodPatch, "/api/prompts/"+id, map[string]any{
		"name": "after",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Name   string `json:"name"`
		Blocks []any  `json:"blocks"`
	}
	decode(t, rec, &updated)
	assert.Equal(t, "after", updated.Name)
	// Untouched fields survive a partial update.
	assert.Len(t, updated.Blocks, 1)
}

func TestPromptDelete(t *testing.T) {
	e := newEnv(t)
	id := e.createPrompt(t, "doomed")

	rec := e.do(t, http.MethodDelete, "/api/prompts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/prompts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/prompts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromptListPagination(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 5; i++ {
		e.createPrompt(t, "p")
	}

	rec := e.do(t, http.MethodGet, "/api/prompts/?page=2&page_size=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Prompts    []map[string]any `json:"prompts"`
		Total      int              `json:"total"`
		Page       int              `json:"page"`
		PageSize   int              `json:"page_size"`
		TotalPages int              `json:"total_pages"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 2, list.PageSize)
	assert.Equal(t, 3, list.TotalPages)
	assert.Len(t, list.Prompts, 2)
}

func TestPromptListTagFilter(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{
		"name": "tagged",
		"tags": []string{"Production"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	e.createPrompt(t, "untagged")

	rec = e.do(t, http.MethodGet, "/api/prompts/?tag=production", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Prompts []map[string]any `json:"prompts"`
		Total   int              `json:"total"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "tagged", list.Prompts[0]["name"])
}

func TestPromptListParentFilter(t *testing.T) {
	e := newEnv(t)
	parentID := e.createPrompt(t, "root")
	rec := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{
		"name":      "child",
		"parent_id": parentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	e.createPrompt(t, "unrelated")

	rec = e.do(t, http.MethodGet, "/api/prompts/?parent_id="+parentID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Prompts []map[string]any `json:"prompts"`
		Total   int              `json:"total"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "child", list.Prompts[0]["name"])
}

func TestPromptDiff(t *testing.T) {
	e := newEnv(t)

	recA := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{
		"name": "v1",
		"blocks": []map[string]any{
			{"title": "Task", "body": "old body"},
			{"title": "Rules", "body": "be strict"},
		},
	})
	require.Equal(t, http.StatusCreated, recA.Code)
	recB := e.do(t, http.MethodPost, "/api/prompts/", map[string]any{
		"name": "v2",
		"blocks": []map[string]any{
			{"title": "Task", "body": "new body"},
			{"title": "Rules", "body": "be strict"},
			{"title": "Output", "body": "JSON only"},
		},
	})
	require.Equal(t, http.StatusCreated, recB.Code)

	var a, b struct {
		ID string `json:"id"`
	}
	decode(t, recA, &a)
	decode(t, recB, &b)

	rec := e.do(t, http.MethodGet, "/api/prompts/"+a.ID+"/diff/"+b.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var diff struct {
		NameChanged bool `json:"name_changed"`
		TagsChanged bool `json:"tags_changed"`
		BlocksDiff  []struct {
			Index  int    `json:"index"`
			Status string `json:"status"`
		} `json:"blocks_diff"`
	}
	decode(t, rec, &diff)
	assert.True(t, diff.NameChanged)
	assert.False(t, diff.TagsChanged)
	require.Len(t, diff.BlocksDiff, 2)
	assert.Equal(t, 0, diff.BlocksDiff[0].Index)
	assert.Equal(t, "modified", diff.BlocksDiff[0].Status)
	assert.Equal(t, 2, diff.BlocksDiff[1].Index)
	assert.Equal(t, "added", diff.BlocksDiff[1].Status)
}

func TestPromptDiffMissingSide(t *testing.T) {
	e := newEnv(t)
	id := e.createPrompt(t, "only-one")

	rec := e.do(t, http.MethodGet, "/api/prompts/"+id+"/diff/deadbeefdeadbeefdeadbeefdeadbeef", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
