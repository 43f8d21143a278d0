package entities

// DiffKind is the closed discriminator for a DiffEntry's variant (spec §3,
// §9 "tagged variants with a closed discriminator").
type DiffKind string

const (
	DiffKindAddition     DiffKind = "addition"
	DiffKindRemoval      DiffKind = "removal"
	DiffKindModification DiffKind = "modification"
	DiffKindRename       DiffKind = "rename"
)

// Impact classifies a diff entry's breaking potential (spec §3, Glossary).
type Impact string

const (
	ImpactBreaking    Impact = "breaking"
	ImpactNonBreaking Impact = "non-breaking"
)

// DiffField is one of the comparable fields a Modification may report as
// changed (spec §3).
type DiffField string

const (
	FieldValue          DiffField = "value"
	FieldRaw            DiffField = "raw"
	FieldRef            DiffField = "ref"
	FieldType           DiffField = "type"
	FieldDescription    DiffField = "description"
	FieldExtensions     DiffField = "extensions"
	FieldDeprecated     DiffField = "deprecated"
	FieldReferences     DiffField = "references"
	FieldResolutionPath DiffField = "resolutionPath"
	FieldAppliedAliases DiffField = "appliedAliases"
)

// DiffEntry is the tagged-variant payload for one diff result (spec §3):
// Addition | Removal | Modification | Rename. Only the fields relevant to
// Kind are populated; callers branch on Kind, never on a type hierarchy.
type DiffEntry struct {
	Kind DiffKind

	// Addition / Modification / Rename (next side)
	ID     Pointer
	Next   *TokenSnapshot
	Impact Impact

	// Removal / Modification (previous side)
	Previous *TokenSnapshot

	// Modification
	Changes map[DiffField]bool

	// Rename
	PreviousID Pointer
	NextID     Pointer
}

// DiffFilter restricts diff entries to those satisfying every provided
// predicate (spec §4.6).
type DiffFilter struct {
	Types   []TokenType
	Paths   []string
	Groups  []string
	Impacts []Impact
	Kinds   []DiffKind
}

// Matches reports whether entry satisfies every non-empty predicate in f.
func (f DiffFilter) Matches(entry DiffEntry) bool {
	pointer := entry.effectivePointer()

	if len(f.Kinds) > 0 && !containsKind(f.Kinds, entry.Kind) {
		return false
	}
	if len(f.Impacts) > 0 && !containsImpact(f.Impacts, entry.Impact) {
		return false
	}
	if len(f.Types) > 0 {
		t := entry.effectiveType()
		if !containsType(f.Types, t) {
			return false
		}
	}
	if len(f.Paths) > 0 && !MatchAny(pointer.String(), f.Paths) {
		return false
	}
	if len(f.Groups) > 0 {
		group := pointer.Group()
		found := false
		for _, g := range f.Groups {
			if g == group {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (entry DiffEntry) effectivePointer() Pointer {
	switch entry.Kind {
	case DiffKindRemoval:
		return entry.ID
	case DiffKindRename:
		return entry.NextID
	default:
		return entry.ID
	}
}

func (entry DiffEntry) effectiveType() TokenType {
	if entry.Next != nil {
		return entry.Next.Token.Type
	}
	if entry.Previous != nil {
		return entry.Previous.Token.Type
	}
	return ""
}

func containsKind(kinds []DiffKind, k DiffKind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func containsImpact(impacts []Impact, i Impact) bool {
	for _, candidate := range impacts {
		if candidate == i {
			return true
		}
	}
	return false
}

func containsType(types []TokenType, t TokenType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// VersionBump is the diff summary's suggested semver bump (spec §3,
// Glossary).
type VersionBump string

const (
	BumpNone  VersionBump = "none"
	BumpPatch VersionBump = "patch"
	BumpMinor VersionBump = "minor"
	BumpMajor VersionBump = "major"
)

// DiffSummary aggregates a diff result's entries (spec §4.6).
type DiffSummary struct {
	Added           int
	Removed         int
	Changed         int
	Renamed         int
	Unchanged       int
	Breaking        int
	NonBreaking     int
	ValueChanged    int
	MetadataChanged int
	PerType         map[TokenType]int
	PerGroup        map[string]int
	RecommendedBump VersionBump
}

// DiffResult is the Diff Engine's top-level output.
type DiffResult struct {
	Entries []DiffEntry
	Summary DiffSummary
}
