// Package transformcache provides TransformCache implementations: an
// in-memory cache for single-run reuse, and a content-addressed directory
// store for cross-run persistence (spec §4.4, §6).
package transformcache

import (
	"context"
	"sync"
	"time"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// Memory is a process-local, mutex-guarded TransformCache keyed by the
// Transform Engine's inputFingerprint. Safe for concurrent use by the
// Transform Engine's worker pool.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entities.TransformCacheEntry
}

// NewMemory creates an empty in-memory transform cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entities.TransformCacheEntry)}
}

// Get returns the cached entry for key, honoring TTL (0 means no expiry).
func (m *Memory) Get(ctx context.Context, key string) (entities.TransformCacheEntry, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return entities.TransformCacheEntry{}, false, nil
	}

	if entry.TTL > 0 {
		age := time.Duration(time.Now().UnixNano()-entry.WrittenAt) * time.Nanosecond
		if age > time.Duration(entry.TTL)*time.Second {
			m.Invalidate(key)
			return entities.TransformCacheEntry{}, false, nil
		}
	}

	return entry, true, nil
}

// Set stores or replaces entry at key.
func (m *Memory) Set(ctx context.Context, key string, entry entities.TransformCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Invalidate removes key from the cache, if present.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
