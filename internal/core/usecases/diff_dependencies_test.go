package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

type fakeDependencyStore struct {
	last entities.DependencySnapshot
}

func (f *fakeDependencyStore) Evaluate(_ context.Context, snapshot entities.DependencySnapshot) (entities.DependencyDiff, error) {
	changed := make(map[entities.Pointer]bool)
	for _, entry := range snapshot.Entries {
		var prior *entities.DependencySnapshotEntry
		for i := range f.last.Entries {
			if f.last.Entries[i].Pointer == entry.Pointer {
				prior = &f.last.Entries[i]
				break
			}
		}
		if prior == nil || prior.Hash != entry.Hash {
			changed[entry.Pointer] = true
		}
	}
	return entities.DependencyDiff{Snapshot: snapshot, Changed: changed}, nil
}

func (f *fakeDependencyStore) Commit(_ context.Context, snapshot entities.DependencySnapshot) error {
	f.last = snapshot
	return nil
}

func resolvedPlanWith(entries ...entities.TokenSnapshot) *entities.ResolvedPlan {
	set := setOf(entries...)
	return &entities.ResolvedPlan{Entries: []entities.ResolvedSource{{SourceID: "core", Tokens: set}}}
}

func TestTrackDependenciesNoStoreReportsEveryPointerChanged(t *testing.T) {
	tracker := NewTrackDependencies(nil, fixedClock{at: time.Unix(0, 0)})
	plan := resolvedPlanWith(snapshot("/color/brand", "#ff0000", entities.TokenTypeColor))

	snap := tracker.BuildSnapshot(plan)
	diff, err := tracker.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.Changed[entities.Pointer("/color/brand")] {
		t.Errorf("expected a cold cache to report every pointer as changed")
	}
}

func TestTrackDependenciesDetectsUnchangedPointers(t *testing.T) {
	store := &fakeDependencyStore{}
	tracker := NewTrackDependencies(store, fixedClock{at: time.Unix(0, 0)})

	plan := resolvedPlanWith(
		snapshot("/color/brand", "#ff0000", entities.TokenTypeColor),
		snapshot("/color/accent", "#00ff00", entities.TokenTypeColor),
	)
	firstSnap := tracker.BuildSnapshot(plan)
	if _, err := tracker.Evaluate(context.Background(), firstSnap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tracker.Commit(context.Background(), firstSnap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nextPlan := resolvedPlanWith(
		snapshot("/color/brand", "#ffffff", entities.TokenTypeColor),
		snapshot("/color/accent", "#00ff00", entities.TokenTypeColor),
	)
	nextSnap := tracker.BuildSnapshot(nextPlan)
	diff, err := tracker.Evaluate(context.Background(), nextSnap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !diff.Changed[entities.Pointer("/color/brand")] {
		t.Errorf("expected the modified pointer to be reported changed")
	}
	if diff.Changed[entities.Pointer("/color/accent")] {
		t.Errorf("expected the unchanged pointer to not be reported changed")
	}
}

func TestTrackDependenciesExpandChangedThroughReferences(t *testing.T) {
	tracker := NewTrackDependencies(nil, fixedClock{at: time.Unix(0, 0)})

	base := snapshot("/color/brand", "#ff0000", entities.TokenTypeColor)
	alias := entities.TokenSnapshot{
		Pointer:    "/color/accent",
		Token:      entities.Token{Type: entities.TokenTypeColor, Ref: "/color/brand"},
		Resolution: &entities.TokenResolution{Value: "#ff0000", References: []entities.ResolvedReference{{Pointer: "/color/brand"}}},
	}
	plan := resolvedPlanWith(base, alias)

	snap := tracker.BuildSnapshot(plan)
	diff, err := tracker.Evaluate(context.Background(), snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expanded := tracker.ExpandChanged(diff, entities.ExpansionPolicy{Transitive: true, MaxDepth: -1})
	if !expanded[entities.Pointer("/color/accent")] {
		t.Errorf("expected the dependent alias to be included in the expanded changed set, got %v", expanded)
	}
}
