package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is the in-process Cache implementation. Entries expire lazily on
// read; mutation is mutex-guarded.
type Memory struct {
	mu         sync.Mutex
	namespaces map[string]map[string]entry
}

func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]map[string]entry)}
}

func (m *Memory) Get(_ context.Context, namespace, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		return false, nil
	}
	e, ok := ns[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(ns, key)
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, namespace, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s/%s: %w", namespace, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.namespaces[namespace] == nil {
		m.namespaces[namespace] = make(map[string]entry)
	}
	m.namespaces[namespace][key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) InvalidateNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	return nil
}
