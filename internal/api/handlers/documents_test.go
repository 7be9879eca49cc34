package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentListSortedAndFiltered(t *testing.T) {
	e := newEnv(t)
	e.addDocument(t, "zeta.txt", "z")
	e.addDocument(t, "alpha.pdf", "%PDF-1.4")
	e.addDocument(t, "beta.txt", "b")

	rec := e.do(t, http.MethodGet, "/api/documents/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Documents []struct {
			Name      string `json:"name"`
			Type      string `json:"type"`
			Extension string `json:"extension"`
			Size      int64  `json:"size"`
		} `json:"documents"`
		Total int `json:"total"`
	}
	decode(t, rec, &list)
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "alpha.pdf", list.Documents[0].Name)
	assert.Equal(t, "pdf", list.Documents[0].Type)
	assert.Equal(t, "beta.txt", list.Documents[1].Name)
	assert.Equal(t, "zeta.txt", list.Documents[2].Name)

	rec = e.do(t, http.MethodGet, "/api/documents/?extension=pdf", nil)
	decode(t, rec, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "alpha.pdf", list.Documents[0].Name)
}

func TestDocumentGetMetadata(t *testing.T) {
	e := newEnv(t)
	e.addDocument(t, "lease.txt", "hello")

	rec := e.do(t, http.MethodGet, "/api/documents/lease.txt", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
		Type string `json:"type"`
	}
	decode(t, rec, &doc)
	assert.Equal(t, "lease.txt", doc.Name)
	assert.Equal(t, int64(5), doc.Size)
	assert.Equal(t, "text", doc.Type)
}

func TestDocumentGetNotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/documents/ghost.txt", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentGetRejectsTraversal(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/documents/..%2Fsecret.txt", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHead(t *testing.T) {
	e := newEnv(t)
	e.addDocument(t, "here.txt", "x")

	rec := e.do(t, http.MethodHead, "/api/documents/here.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = e.do(t, http.MethodHead, "/api/documents/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
