package resolvercache

import (
	"context"
	"testing"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

func TestDocumentsGetSetRoundTrip(t *testing.T) {
	cache := NewDocuments()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "tokens/core.json"); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	if err := cache.Set(ctx, "tokens/core.json", "fingerprint-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fingerprint, ok := cache.Get(ctx, "tokens/core.json")
	if !ok || fingerprint != "fingerprint-1" {
		t.Fatalf("expected a hit with fingerprint-1, got %q (ok=%v)", fingerprint, ok)
	}
}

func TestTokensGetSetRoundTrip(t *testing.T) {
	cache := NewTokens()
	ctx := context.Background()
	snap := entities.TokenSnapshot{Pointer: "/color/brand"}

	if err := cache.Set(ctx, "tokens/core.json", snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := cache.Get(ctx, "tokens/core.json")
	if !ok || got.Pointer != "/color/brand" {
		t.Fatalf("expected the cached snapshot to round-trip, got %+v (ok=%v)", got, ok)
	}
}
