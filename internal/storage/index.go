package storage

import (
	"errors"
	"path/filepath"
	"sort"
)

// Index is the denormalized listing file for a collection:
// {"items": [...], "version": 1}. Items mirror a subset of each entity's
// fields so list endpoints never read every entity file.
type Index struct {
	Items   []map[string]any `json:"items"`
	Version int              `json:"version"`
}

// Per-collection sort rules, applied after every mutation.
var indexSort = map[string]struct {
	field string
	desc  bool
}{
	CollectionPrompts: {"created_at", true},
	CollectionConfigs: {"name", false},
	CollectionRuns:    {"started_at", true},
}

func (s *Store) indexPath(collection string) string {
	return filepath.Join(s.dataDir, collection, "index.json")
}

// LoadIndex reads a collection's index. A missing file yields an empty
// index, not an error.
func (s *Store) LoadIndex(collection string) (*Index, error) {
	idx := &Index{Items: []map[string]any{}, Version: 1}
	err := s.loadFile(s.indexPath(collection), idx)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		// Treat missing index as empty.
		return &Index{Items: []map[string]any{}, Version: 1}, nil
	}
	if idx.Items == nil {
		idx.Items = []map[string]any{}
	}
	return idx, nil
}

// SaveIndex re-sorts and writes a collection's index.
func (s *Store) SaveIndex(collection string, idx *Index) error {
	sortIndex(collection, idx.Items)
	return s.saveFile(s.indexPath(collection), idx)
}

// UpsertIndexEntry replaces the entry with the same id, or appends it, and
// rewrites the index file.
func (s *Store) UpsertIndexEntry(collection string, entry map[string]any) error {
	idx, err := s.LoadIndex(collection)
	if err != nil {
		return err
	}
	id, _ := entry["id"].(string)
	replaced := false
	for i, item := range idx.Items {
		if item["id"] == id {
			idx.Items[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Items = append(idx.Items, entry)
	}
	return s.SaveIndex(collection, idx)
}

// RemoveIndexEntry drops the entry with the given id, if present.
func (s *Store) RemoveIndexEntry(collection, id string) error {
	idx, err := s.LoadIndex(collection)
	if err != nil {
		return err
	}
	kept := idx.Items[:0]
	for _, item := range idx.Items {
		if item["id"] != id {
			kept = append(kept, item)
		}
	}
	idx.Items = kept
	return s.SaveIndex(collection, idx)
}

func sortIndex(collection string, items []map[string]any) {
	rule, ok := indexSort[collection]
	if !ok {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, _ := items[i][rule.field].(string)
		b, _ := items[j][rule.field].(string)
		if rule.desc {
			return a > b
		}
		return a < b
	})
}
