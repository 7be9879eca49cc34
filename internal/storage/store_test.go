package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()

	assert.Len(t, id, 32)
	assert.Equal(t, strings.ToLower(id), id)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, GenerateID())
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "123e4567e89b12d3a456426614174000", NormalizeID("123e4567-e89b-12d3-a456-426614174000"))

	// Already-normalized and unrecognized ids pass through.
	assert.Equal(t, "123e4567e89b12d3a456426614174000", NormalizeID("123e4567e89b12d3a456426614174000"))
	assert.Equal(t, "not-a-uuid", NormalizeID("not-a-uuid"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	entity := testEntity{ID: "abc", Name: "hello"}

	require.NoError(t, store.Save(CollectionPrompts, entity.ID, entity))

	var loaded testEntity
	require.NoError(t, store.Load(CollectionPrompts, "abc", &loaded))
	assert.Equal(t, entity, loaded)
}

func TestSaveWritesCanonicalJSON(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Save(CollectionPrompts, "x", map[string]any{"a": 1}))

	data, err := os.ReadFile(filepath.Join(dir, "prompts", "x.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	store := New(t.TempDir())

	var dest testEntity
	err := store.Load(CollectionRuns, "nope", &dest)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorruptReturnsDecodeError(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts", "bad.json"), []byte("{not json"), 0o644))

	var dest testEntity
	err := store.Load(CollectionPrompts, "bad", &dest)

	var de *DecodeError
	assert.ErrorAs(t, err, &de)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndExists(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Save(CollectionConfigs, "c1", testEntity{ID: "c1"}))

	assert.True(t, store.Exists(CollectionConfigs, "c1"))
	require.NoError(t, store.Delete(CollectionConfigs, "c1"))
	assert.False(t, store.Exists(CollectionConfigs, "c1"))

	assert.ErrorIs(t, store.Delete(CollectionConfigs, "c1"), ErrNotFound)
}

func TestLoadIndexMissingYieldsEmpty(t *testing.T) {
	store := New(t.TempDir())

	idx, err := store.LoadIndex(CollectionRuns)

	require.NoError(t, err)
	assert.Empty(t, idx.Items)
	assert.Equal(t, 1, idx.Version)
}

func TestLoadIndexCorruptFails(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", "index.json"), []byte("[["), 0o644))

	_, err := store.LoadIndex(CollectionRuns)

	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestUpsertIndexEntryReplacesById(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.UpsertIndexEntry(CollectionConfigs, map[string]any{"id": "a", "name": "first"}))
	require.NoError(t, store.UpsertIndexEntry(CollectionConfigs, map[string]any{"id": "a", "name": "second"}))

	idx, err := store.LoadIndex(CollectionConfigs)
	require.NoError(t, err)
	require.Len(t, idx.Items, 1)
	assert.Equal(t, "second", idx.Items[0]["name"])
}

func TestIndexSortRules(t *testing.T) {
	store := New(t.TempDir())

	// Configs sort by name ascending.
	require.NoError(t, store.UpsertIndexEntry(CollectionConfigs, map[string]any{"id": "1", "name": "zeta"}))
	require.NoError(t, store.UpsertIndexEntry(CollectionConfigs, map[string]any{"id": "2", "name": "alpha"}))

	idx, err := store.LoadIndex(CollectionConfigs)
	require.NoError(t, err)
	assert.Equal(t, "alpha", idx.Items[0]["name"])

	// Prompts sort by created_at descending.
	require.NoError(t, store.UpsertIndexEntry(CollectionPrompts, map[string]any{"id": "p1", "created_at": "2024-01-01T00:00:00Z"}))
	require.NoError(t, store.UpsertIndexEntry(CollectionPrompts, map[string]any{"id": "p2", "created_at": "2024-06-01T00:00:00Z"}))

	pidx, err := store.LoadIndex(CollectionPrompts)
	require.NoError(t, err)
	assert.Equal(t, "p2", pidx.Items[0]["id"])
}

func TestRemoveIndexEntry(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.UpsertIndexEntry(CollectionRuns, map[string]any{"id": "r1", "started_at": "2024-01-01T00:00:00Z"}))
	require.NoError(t, store.UpsertIndexEntry(CollectionRuns, map[string]any{"id": "r2", "started_at": "2024-01-02T00:00:00Z"}))

	require.NoError(t, store.RemoveIndexEntry(CollectionRuns, "r1"))

	idx, err := store.LoadIndex(CollectionRuns)
	require.NoError(t, err)
	require.Len(t, idx.Items, 1)
	assert.Equal(t, "r2", idx.Items[0]["id"])
}
