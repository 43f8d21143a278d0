package entities

import "time"

// LayerConfig names a tier of sources contributing tokens; later layers
// override earlier ones at the same pointer (spec §3, Glossary).
type LayerConfig struct {
	Name    string
	Context map[string]any
}

// SourceConfig is a configured origin (file glob or virtual) producing one
// or more documents, plus the pointer template used to prefix them.
type SourceConfig struct {
	ID              string
	Layer           string
	PointerTemplate string
	Context         map[string]any
	Patterns        []string // file-glob adapter
	Ignore          []string
	RootDir         string
}

// RepositoryIssue is a non-fatal diagnostic surfaced by a Source Repository
// adapter (spec §4.1, §7 "Source errors (collected)").
type RepositoryIssue struct {
	SourceID string
	URI      string
	Message  string
}

// ValidationIssue is a non-fatal diagnostic from the optional Schema
// Validator port.
type ValidationIssue struct {
	SourceID string
	URI      string
	Pointer  Pointer
	Message  string
}

// PlannedDocument is one discovered, pointer-prefixed document ready for
// the Resolver.
type PlannedDocument struct {
	SourceID      string
	Layer         string
	LayerIndex    int
	URI           string
	Document      any
	PointerPrefix Pointer
	Context       map[string]any
}

// SourcePlan is the Source Planner's output: an ordered plan of documents
// plus any collected issues (spec §4.1).
type SourcePlan struct {
	Entries  []PlannedDocument
	Issues   []RepositoryIssue
	Validity []ValidationIssue
}

// ResolvedSource is one plan entry after resolution, carrying its flattened
// tokens and indices (spec §3).
type ResolvedSource struct {
	SourceID        string
	URI             string
	Tokens          *TokenSet
	Diagnostics     []ResolutionDiagnostic
	MetadataIndex   map[Pointer]TokenMetadata
	ResolutionIndex map[Pointer]TokenResolution
	CacheStatus     CacheStatus
}

// ResolutionDiagnostic attaches a non-fatal resolution problem to a
// specific pointer (spec §4.2, §7 "Resolution errors (per-snapshot)").
type ResolutionDiagnostic struct {
	Pointer Pointer
	Message string
	Err     error
}

// ResolverMetrics are the per-run counters the Resolver records (spec §4.2).
type ResolverMetrics struct {
	EntryCount int
	TotalMs    int64
	ParseMs    int64
	CacheHits  int
	CacheMiss  int
	CacheSkip  int
}

// ResolvedPlan is the Resolver's top-level output (spec §3).
type ResolvedPlan struct {
	Entries     []ResolvedSource
	Diagnostics []ResolutionDiagnostic
	ResolvedAt  time.Time
	Metrics     ResolverMetrics
}

// Merged returns a single TokenSet combining every entry's tokens in plan
// order, so later layers override earlier ones under the same pointer.
func (rp *ResolvedPlan) Merged() *TokenSet {
	merged := NewTokenSet()
	for _, entry := range rp.Entries {
		if entry.Tokens == nil {
			continue
		}
		entry.Tokens.Range(func(p Pointer, snap TokenSnapshot) bool {
			merged.Put(p, snap)
			return true
		})
	}
	return merged
}
