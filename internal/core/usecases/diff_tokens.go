package usecases

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// DiffTokens is the Diff Engine (spec §4.6): it classifies two resolved
// token sets into additions, removals, modifications, and renames, applies
// an optional filter, and summarizes the result with a recommended bump.
type DiffTokens struct {
	renameStrategy TokenRenameStrategy
	impactStrategy TokenImpactStrategy
}

// TokenRenameStrategy decides whether a removed and an added snapshot are
// the same token under a new pointer (spec §4.6 "Rename detection").
type TokenRenameStrategy func(removed, added entities.TokenSnapshot) bool

// TokenImpactStrategy classifies a diff entry's breaking potential
// (spec §4.6 step 3).
type TokenImpactStrategy func(entry entities.DiffEntry) entities.Impact

// NewDiffTokens creates a Diff Engine with the default rename and impact
// strategies, overridable via WithRenameStrategy/WithImpactStrategy.
func NewDiffTokens() *DiffTokens {
	return &DiffTokens{
		renameStrategy: defaultRenameStrategy,
		impactStrategy: defaultImpactStrategy,
	}
}

// WithRenameStrategy overrides the default type+deep-equal rename matcher.
func (d *DiffTokens) WithRenameStrategy(strategy TokenRenameStrategy) *DiffTokens {
	d.renameStrategy = strategy
	return d
}

// WithImpactStrategy overrides the default breaking/non-breaking classifier.
func (d *DiffTokens) WithImpactStrategy(strategy TokenImpactStrategy) *DiffTokens {
	d.impactStrategy = strategy
	return d
}

// Execute computes the diff between prev and next, applies filter, and
// returns the filtered entries with a summary computed over them.
func (d *DiffTokens) Execute(prev, next *entities.TokenSet, filter entities.DiffFilter) entities.DiffResult {
	prevPointers := pointerSet(prev)
	nextPointers := pointerSet(next)

	var removedOnly, addedOnly []entities.Pointer
	var entries []entities.DiffEntry
	unchanged := 0

	for _, p := range orderedPointers(prev) {
		if !nextPointers[p] {
			removedOnly = append(removedOnly, p)
			continue
		}
		prevSnap, _ := prev.Get(p)
		nextSnap, _ := next.Get(p)
		changes := compareSnapshots(prevSnap, nextSnap)
		if len(changes) == 0 {
			unchanged++
			continue
		}
		entry := entities.DiffEntry{
			Kind:     entities.DiffKindModification,
			ID:       p,
			Previous: &prevSnap,
			Next:     &nextSnap,
			Changes:  changes,
		}
		entry.Impact = d.impactStrategy(entry)
		entries = append(entries, entry)
	}
	for _, p := range orderedPointers(next) {
		if !prevPointers[p] {
			addedOnly = append(addedOnly, p)
		}
	}

	renamed, remainingRemoved, remainingAdded := d.matchRenames(prev, next, removedOnly, addedOnly)
	entries = append(entries, renamed...)

	for _, p := range remainingRemoved {
		snap, _ := prev.Get(p)
		entry := entities.DiffEntry{Kind: entities.DiffKindRemoval, ID: p, Previous: &snap}
		entry.Impact = d.impactStrategy(entry)
		entries = append(entries, entry)
	}
	for _, p := range remainingAdded {
		snap, _ := next.Get(p)
		entry := entities.DiffEntry{Kind: entities.DiffKindAddition, ID: p, Next: &snap}
		entry.Impact = d.impactStrategy(entry)
		entries = append(entries, entry)
	}

	var filtered []entities.DiffEntry
	for _, entry := range entries {
		if filter.Matches(entry) {
			filtered = append(filtered, entry)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return entryKey(filtered[i]) < entryKey(filtered[j])
	})

	summary := summarize(filtered, unchanged)
	return entities.DiffResult{Entries: filtered, Summary: summary}
}

// matchRenames pairs removed and added pointers that the rename strategy
// accepts as the same token. Candidates are sorted lexicographically by
// (removedPointer, addedPointer) and matched greedily, so tie-breaking is
// deterministic (spec §4.6 "Rename detection", §14 decision 3).
func (d *DiffTokens) matchRenames(prev, next *entities.TokenSet, removed, added []entities.Pointer) (renamed []entities.DiffEntry, remainingRemoved, remainingAdded []entities.Pointer) {
	type candidate struct {
		removed entities.Pointer
		added   entities.Pointer
	}
	var candidates []candidate
	for _, r := range removed {
		removedSnap, _ := prev.Get(r)
		for _, a := range added {
			addedSnap, _ := next.Get(a)
			if d.renameStrategy(removedSnap, addedSnap) {
				candidates = append(candidates, candidate{removed: r, added: a})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].removed != candidates[j].removed {
			return candidates[i].removed < candidates[j].removed
		}
		return candidates[i].added < candidates[j].added
	})

	usedRemoved := make(map[entities.Pointer]bool)
	usedAdded := make(map[entities.Pointer]bool)
	for _, c := range candidates {
		if usedRemoved[c.removed] || usedAdded[c.added] {
			continue
		}
		usedRemoved[c.removed] = true
		usedAdded[c.added] = true

		prevSnap, _ := prev.Get(c.removed)
		nextSnap, _ := next.Get(c.added)
		entry := entities.DiffEntry{
			Kind:       entities.DiffKindRename,
			PreviousID: c.removed,
			NextID:     c.added,
			ID:         c.added,
			Previous:   &prevSnap,
			Next:       &nextSnap,
		}
		entry.Impact = d.impactStrategy(entry)
		renamed = append(renamed, entry)
	}

	for _, r := range removed {
		if !usedRemoved[r] {
			remainingRemoved = append(remainingRemoved, r)
		}
	}
	for _, a := range added {
		if !usedAdded[a] {
			remainingAdded = append(remainingAdded, a)
		}
	}
	return renamed, remainingRemoved, remainingAdded
}

// defaultRenameStrategy matches a removed and an added snapshot when their
// types agree and their resolved (or raw) values are deep-equal
// (spec §4.6 "default: type+deep-equal").
func defaultRenameStrategy(removed, added entities.TokenSnapshot) bool {
	if removed.Token.Type != added.Token.Type {
		return false
	}
	return cmp.Equal(entities.Canonicalize(snapshotValue(removed)), entities.Canonicalize(snapshotValue(added)))
}

// defaultImpactStrategy classifies removals and renames as breaking,
// additions as non-breaking, and modifications as breaking only when the
// resolved value, raw value, type, or ref changed (spec §4.6 step 3).
func defaultImpactStrategy(entry entities.DiffEntry) entities.Impact {
	switch entry.Kind {
	case entities.DiffKindRemoval, entities.DiffKindRename:
		return entities.ImpactBreaking
	case entities.DiffKindAddition:
		return entities.ImpactNonBreaking
	case entities.DiffKindModification:
		if entry.Changes[entities.FieldValue] || entry.Changes[entities.FieldRaw] || entry.Changes[entities.FieldType] || entry.Changes[entities.FieldRef] {
			return entities.ImpactBreaking
		}
		return entities.ImpactNonBreaking
	default:
		return entities.ImpactNonBreaking
	}
}

func snapshotValue(snap entities.TokenSnapshot) any {
	if snap.Resolution != nil {
		return snap.Resolution.Value
	}
	return snap.Token.Value
}

// compareSnapshots reports which fields differ between prev and next,
// using ordered-list equality for references/resolutionPath/appliedAliases
// and deep equality (canonicalized) for extensions (spec §4.6 step 2).
func compareSnapshots(prev, next entities.TokenSnapshot) map[entities.DiffField]bool {
	changes := make(map[entities.DiffField]bool)

	if !cmp.Equal(entities.Canonicalize(snapshotValue(prev)), entities.Canonicalize(snapshotValue(next))) {
		changes[entities.FieldValue] = true
	}
	if !cmp.Equal(entities.Canonicalize(prev.Token.Raw), entities.Canonicalize(next.Token.Raw)) {
		changes[entities.FieldRaw] = true
	}
	if prev.Token.Ref != next.Token.Ref {
		changes[entities.FieldRef] = true
	}
	if prev.Token.Type != next.Token.Type {
		changes[entities.FieldType] = true
	}
	if !stringPtrEqual(metaDescription(prev), metaDescription(next)) {
		changes[entities.FieldDescription] = true
	}
	if !stringPtrEqual(metaDeprecated(prev), metaDeprecated(next)) {
		changes[entities.FieldDeprecated] = true
	}
	if !cmp.Equal(entities.SortedKeys(metaExtensions(prev)), entities.SortedKeys(metaExtensions(next))) ||
		!cmp.Equal(entities.Canonicalize(anyMap(metaExtensions(prev))), entities.Canonicalize(anyMap(metaExtensions(next)))) {
		changes[entities.FieldExtensions] = true
	}

	prevReferences, prevPath, prevAliases := resolutionFields(prev)
	nextReferences, nextPath, nextAliases := resolutionFields(next)
	if !cmp.Equal(prevReferences, nextReferences) {
		changes[entities.FieldReferences] = true
	}
	if !cmp.Equal(prevPath, nextPath) {
		changes[entities.FieldResolutionPath] = true
	}
	if !cmp.Equal(prevAliases, nextAliases) {
		changes[entities.FieldAppliedAliases] = true
	}

	return changes
}

func metaDescription(snap entities.TokenSnapshot) *string {
	if snap.Metadata == nil {
		return nil
	}
	return snap.Metadata.Description
}

func metaDeprecated(snap entities.TokenSnapshot) *string {
	if snap.Metadata == nil {
		return nil
	}
	return snap.Metadata.Deprecated
}

func metaExtensions(snap entities.TokenSnapshot) map[string]any {
	if snap.Metadata == nil {
		return nil
	}
	return snap.Metadata.Extensions
}

func anyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func resolutionFields(snap entities.TokenSnapshot) ([]entities.ResolvedReference, []entities.Pointer, []string) {
	if snap.Resolution == nil {
		return nil, nil, nil
	}
	return snap.Resolution.References, snap.Resolution.ResolutionPath, snap.Resolution.AppliedAliases
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func pointerSet(set *entities.TokenSet) map[entities.Pointer]bool {
	out := make(map[entities.Pointer]bool, set.Len())
	for _, p := range set.Pointers() {
		out[p] = true
	}
	return out
}

func orderedPointers(set *entities.TokenSet) []entities.Pointer {
	return set.Pointers()
}

func effectiveDiffType(entry entities.DiffEntry) entities.TokenType {
	if entry.Next != nil {
		return entry.Next.Token.Type
	}
	if entry.Previous != nil {
		return entry.Previous.Token.Type
	}
	return ""
}

func entryKey(entry entities.DiffEntry) string {
	switch entry.Kind {
	case entities.DiffKindRename:
		return entry.NextID.String()
	default:
		return entry.ID.String()
	}
}

// summarize aggregates filtered entries into a DiffSummary (spec §4.6
// "Summary"), including the recommended semver bump.
func summarize(entries []entities.DiffEntry, unchanged int) entities.DiffSummary {
	summary := entities.DiffSummary{
		Unchanged: unchanged,
		PerType:   make(map[entities.TokenType]int),
		PerGroup:  make(map[string]int),
	}

	anyMajor := false
	anyMinor := false
	anyPatch := false

	for _, entry := range entries {
		switch entry.Kind {
		case entities.DiffKindAddition:
			summary.Added++
			anyMinor = true
		case entities.DiffKindRemoval:
			summary.Removed++
			anyMajor = true
		case entities.DiffKindRename:
			summary.Renamed++
			anyMajor = true
		case entities.DiffKindModification:
			summary.Changed++
			if entry.Changes[entities.FieldValue] {
				summary.ValueChanged++
			}
			if len(entry.Changes) > 0 && !entry.Changes[entities.FieldValue] {
				summary.MetadataChanged++
			}
			if entry.Impact == entities.ImpactBreaking {
				anyMajor = true
			} else {
				anyPatch = true
			}
		}

		if entry.Impact == entities.ImpactBreaking {
			summary.Breaking++
		} else {
			summary.NonBreaking++
		}

		t := effectiveDiffType(entry)
		if t != "" {
			summary.PerType[t]++
		}
		pointer := entry.ID
		if entry.Kind == entities.DiffKindRename {
			pointer = entry.NextID
		}
		summary.PerGroup[pointer.Group()]++
	}

	switch {
	case anyMajor:
		summary.RecommendedBump = entities.BumpMajor
	case anyMinor:
		summary.RecommendedBump = entities.BumpMinor
	case anyPatch:
		summary.RecommendedBump = entities.BumpPatch
	default:
		summary.RecommendedBump = entities.BumpNone
	}

	return summary
}
