package usecases

import (
	"context"
	"sort"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// TrackDependencies is the Dependency Cache & Diff Strategy (spec §4.3):
// it builds a DependencySnapshot from a resolved plan, evaluates it
// against prior state through the DependencyStore port, and expands the
// directly-changed pointer set through the dependency graph.
type TrackDependencies struct {
	store DependencyStore // optional; nil means "treat every pointer as changed"
	clock Clock
}

// NewTrackDependencies wires the Dependency Cache & Diff Strategy to an
// optional DependencyStore and a Clock.
func NewTrackDependencies(store DependencyStore, clock Clock) *TrackDependencies {
	return &TrackDependencies{store: store, clock: clock}
}

// BuildSnapshot computes the ordered-by-pointer DependencySnapshot for a
// resolved plan (spec §3, §4.3). An entry's hash is the content fingerprint
// of its type, canonicalized value, and the pointers it references; its
// Dependencies are the pointers reached through Resolution.References.
func (t *TrackDependencies) BuildSnapshot(plan *entities.ResolvedPlan) entities.DependencySnapshot {
	merged := plan.Merged()
	pointers := merged.Pointers()
	sort.Slice(pointers, func(i, j int) bool { return pointers[i] < pointers[j] })

	entries := make([]entities.DependencySnapshotEntry, 0, len(pointers))
	for _, p := range pointers {
		snap, _ := merged.Get(p)

		var deps []entities.Pointer
		var value any
		if snap.Resolution != nil {
			value = snap.Resolution.Value
			for _, ref := range snap.Resolution.References {
				deps = append(deps, ref.Pointer)
			}
		} else {
			value = snap.Token.Value
		}
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })

		entries = append(entries, entities.DependencySnapshotEntry{
			Pointer:      p,
			Hash:         entities.ContentFingerprint(snap.Token.Type, entities.Canonicalize(value), deps),
			Dependencies: deps,
		})
	}

	return entities.DependencySnapshot{
		Version:    entities.DependencySnapshotVersion,
		ResolvedAt: t.clock.Now(),
		Entries:    entries,
	}
}

// Evaluate compares snapshot against the prior committed state (spec §4.3
// "Diff against prior state"). With no DependencyStore wired every pointer
// is reported changed, matching a cold cache.
func (t *TrackDependencies) Evaluate(ctx context.Context, snapshot entities.DependencySnapshot) (entities.DependencyDiff, error) {
	if t.store == nil {
		changed := make(map[entities.Pointer]bool, len(snapshot.Entries))
		for _, e := range snapshot.Entries {
			changed[e.Pointer] = true
		}
		return entities.DependencyDiff{Snapshot: snapshot, Changed: changed}, nil
	}
	return t.store.Evaluate(ctx, snapshot)
}

// Commit persists an accepted snapshot as the new baseline (spec §4.3).
// A nil DependencyStore makes Commit a no-op, matching an ephemeral run.
func (t *TrackDependencies) Commit(ctx context.Context, snapshot entities.DependencySnapshot) error {
	if t.store == nil {
		return nil
	}
	return t.store.Commit(ctx, snapshot)
}

// ExpandChanged grows the directly-changed set through the snapshot's
// dependency graph per policy (spec §4.3 "Transitive dependent expansion").
// Removed pointers seed the expansion alongside changed ones.
func (t *TrackDependencies) ExpandChanged(diff entities.DependencyDiff, policy entities.ExpansionPolicy) map[entities.Pointer]bool {
	graph := diff.Snapshot.Graph()
	seeds := diff.ChangedList()
	for p := range diff.Removed {
		seeds = append(seeds, p)
	}
	return graph.ExpandChanged(seeds, policy)
}
