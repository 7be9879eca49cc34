// Package cache is an optimization layer for read-heavy list endpoints.
// A cold or empty cache is always safe; nothing treats cached data as
// authoritative.
package cache

import (
	"context"
	"time"
)

// TTLs per namespace, tuned to how often each collection changes.
const (
	PromptListTTL   = 60 * time.Second
	ConfigListTTL   = 5 * time.Minute
	RunListTTL      = 30 * time.Second
	DocumentListTTL = 10 * time.Minute
	BenchmarkTTL    = time.Hour
)

// Cache is a namespaced key/value store with per-entry TTL. Any write to a
// collection invalidates the whole corresponding namespace.
type Cache interface {
	// Get unmarshals the cached value for (namespace, key) into dest and
	// reports whether a live entry was found.
	Get(ctx context.Context, namespace, key string, dest any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}
