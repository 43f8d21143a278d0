package entities

import "time"

// DependencySnapshotVersion is the current persisted snapshot format version
// (spec §6). Readers must refuse unknown versions.
const DependencySnapshotVersion = 1

// DependencySnapshotEntry is one pointer's content fingerprint plus the
// pointers it depends on (spec §3).
type DependencySnapshotEntry struct {
	Pointer      Pointer
	Hash         string
	Dependencies []Pointer
}

// DependencySnapshot is the full, ordered-by-pointer fingerprint of a
// resolved token set at one point in time (spec §3, §6).
type DependencySnapshot struct {
	Version    int
	ResolvedAt time.Time
	Entries    []DependencySnapshotEntry
}

// Graph builds a DependencyGraph from the snapshot's recorded edges.
func (s *DependencySnapshot) Graph() *DependencyGraph {
	g := NewDependencyGraph()
	for _, entry := range s.Entries {
		g.AddNode(entry.Pointer)
		for _, dep := range entry.Dependencies {
			g.AddEdge(entry.Pointer, dep)
		}
	}
	return g
}

// ByPointer indexes entries by pointer for O(1) hash lookups.
func (s *DependencySnapshot) ByPointer() map[Pointer]DependencySnapshotEntry {
	idx := make(map[Pointer]DependencySnapshotEntry, len(s.Entries))
	for _, e := range s.Entries {
		idx[e.Pointer] = e
	}
	return idx
}

// DependencyDiff is the result of comparing a snapshot against prior state
// (spec §3).
type DependencyDiff struct {
	Snapshot DependencySnapshot
	Changed  map[Pointer]bool
	Removed  map[Pointer]bool
}

// ChangedList returns the pointers in Changed as a slice, in map iteration
// order, which is not deterministic; callers that need a stable order sort
// the result themselves.
func (d *DependencyDiff) ChangedList() []Pointer {
	out := make([]Pointer, 0, len(d.Changed))
	for p := range d.Changed {
		out = append(out, p)
	}
	return out
}
