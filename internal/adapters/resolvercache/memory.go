// Package resolvercache provides the Resolver's optional DocumentCache and
// TokenCache ports (spec §4.2, §6) as in-memory, mutex-guarded maps — the
// same sync.RWMutex-keyed-map shape as transformcache.Memory, scaled down to
// the Resolver's simpler fingerprint/snapshot value types.
package resolvercache

import (
	"context"
	"sync"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// Documents is an in-memory usecases.DocumentCache: document URI ->
// content fingerprint, used by the Resolver to decide per-source
// CacheStatus (hit/miss).
type Documents struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewDocuments creates an empty document fingerprint cache.
func NewDocuments() *Documents {
	return &Documents{entries: make(map[string]string)}
}

func (d *Documents) Get(ctx context.Context, key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.entries[key]
	return v, ok
}

func (d *Documents) Set(ctx context.Context, key string, fingerprint string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = fingerprint
	return nil
}

// Tokens is an in-memory usecases.TokenCache: pointer -> last resolved
// snapshot, keyed by source URI in practice (the Resolver passes whatever
// key it likes; tokenforge's CLI wiring keys by document URI).
type Tokens struct {
	mu      sync.RWMutex
	entries map[string]entities.TokenSnapshot
}

// NewTokens creates an empty resolved-snapshot cache.
func NewTokens() *Tokens {
	return &Tokens{entries: make(map[string]entities.TokenSnapshot)}
}

func (t *Tokens) Get(ctx context.Context, key string) (entities.TokenSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[key]
	return v, ok
}

func (t *Tokens) Set(ctx context.Context, key string, snapshot entities.TokenSnapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = snapshot
	return nil
}
