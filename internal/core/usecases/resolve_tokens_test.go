package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func plannedDocument(pointerPrefix string, doc map[string]any) entities.PlannedDocument {
	return entities.PlannedDocument{
		SourceID:      "core",
		Layer:         "core",
		URI:           "tokens/core.json",
		PointerPrefix: entities.NewPointer(pointerPrefix),
		Document:      doc,
	}
}

func TestResolveTokensFlattensLeafValues(t *testing.T) {
	resolver := NewResolveTokens(nil, nil, fixedClock{at: time.Unix(0, 0)})
	plan := &entities.SourcePlan{Entries: []entities.PlannedDocument{
		plannedDocument("color", map[string]any{
			"brand": map[string]any{"value": "#ff0000", "type": "color"},
		}),
	}}

	resolved, err := resolver.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	merged := resolved.Merged()
	snap, ok := merged.Get(entities.NewPointer("color", "brand"))
	if !ok {
		t.Fatalf("expected /color/brand to resolve")
	}
	if snap.Resolution == nil || snap.Resolution.Value != "#ff0000" {
		t.Errorf("expected resolved value #ff0000, got %+v", snap.Resolution)
	}
}

func TestResolveTokensFollowsRefChain(t *testing.T) {
	resolver := NewResolveTokens(nil, nil, fixedClock{at: time.Unix(0, 0)})
	plan := &entities.SourcePlan{Entries: []entities.PlannedDocument{
		plannedDocument("color", map[string]any{
			"brand": map[string]any{"value": "#ff0000", "type": "color"},
			"accent": map[string]any{"ref": "/brand", "type": "color"},
		}),
	}}

	resolved, err := resolver.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	merged := resolved.Merged()
	snap, ok := merged.Get(entities.NewPointer("color", "accent"))
	if !ok {
		t.Fatalf("expected /color/accent to resolve")
	}
	if snap.Resolution == nil || snap.Resolution.Value != "#ff0000" {
		t.Fatalf("expected the alias to resolve to the target's value, got %+v", snap.Resolution)
	}
	if len(snap.Resolution.AppliedAliases) != 1 || snap.Resolution.AppliedAliases[0] != "/brand" {
		t.Errorf("expected one applied alias /brand, got %v", snap.Resolution.AppliedAliases)
	}
}

func TestResolveTokensCycleFailsOnlyThatSnapshot(t *testing.T) {
	resolver := NewResolveTokens(nil, nil, fixedClock{at: time.Unix(0, 0)})
	plan := &entities.SourcePlan{Entries: []entities.PlannedDocument{
		plannedDocument("color", map[string]any{
			"a": map[string]any{"ref": "/b", "type": "color"},
			"b": map[string]any{"ref": "/a", "type": "color"},
			"c": map[string]any{"value": "#000000", "type": "color"},
		}),
	}}

	resolved, err := resolver.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("a cycle should not fail the whole plan: %v", err)
	}
	if len(resolved.Entries[0].Diagnostics) == 0 {
		t.Fatalf("expected cycle diagnostics to be recorded")
	}
	merged := resolved.Merged()
	if _, ok := merged.Get(entities.NewPointer("color", "c")); !ok {
		t.Errorf("expected the unrelated token /color/c to still resolve")
	}
}
