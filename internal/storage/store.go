// Package storage persists entities as flat JSON files: one {id}.json per
// entity plus a denormalized index.json per collection. Writes are
// synchronous, last-writer-wins, with no locking or atomicity across the
// entity file and its index entry.
package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Valid collections.
const (
	CollectionPrompts = "prompts"
	CollectionConfigs = "configs"
	CollectionRuns    = "runs"
)

// ErrNotFound marks a missing entity file. A missing file is often a
// legitimate empty state; a present-but-corrupt file never is, and is
// reported as a *DecodeError instead.
var ErrNotFound = errors.New("entity not found")

// DecodeError wraps a JSON parse failure for a file that exists on disk.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("corrupt JSON file %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Store reads and writes entity files under a single data directory.
type Store struct {
	dataDir string
}

func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// GenerateID returns a UUIDv4 as 32 lowercase hex characters, no dashes.
func GenerateID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NormalizeID converts a dashed UUID string to the 32-char hex form used in
// file names. Anything else passes through unchanged.
func NormalizeID(id string) string {
	if len(id) == 36 {
		if u, err := uuid.Parse(id); err == nil {
			return hex.EncodeToString(u[:])
		}
	}
	return id
}

func (s *Store) entityPath(collection, id string) string {
	return filepath.Join(s.dataDir, collection, id+".json")
}

// Load reads the entity file for id into dest.
func (s *Store) Load(collection, id string, dest any) error {
	return s.loadFile(s.entityPath(collection, id), dest)
}

func (s *Store) loadFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// Save writes v as canonical JSON: 2-space indent, UTF-8, trailing newline.
// Parent directories are created as needed.
func (s *Store) Save(collection, id string, v any) error {
	return s.saveFile(s.entityPath(collection, id), v)
}

func (s *Store) saveFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Delete removes the entity file for id.
func (s *Store) Delete(collection, id string) error {
	err := os.Remove(s.entityPath(collection, id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return err
}

// Exists reports whether the entity file for id is present.
func (s *Store) Exists(collection, id string) bool {
	_, err := os.Stat(s.entityPath(collection, id))
	return err == nil
}
