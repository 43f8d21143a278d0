package entities

// Selector matches snapshots by type and/or pointer glob (spec §3, §4.4).
type Selector struct {
	Types []TokenType
	Paths []string
}

// Matches reports whether a snapshot satisfies the selector: its type is in
// Types (or Types is empty) and its pointer matches any Paths glob (or
// Paths is empty).
func (s Selector) Matches(snap TokenSnapshot) bool {
	if len(s.Types) > 0 {
		found := false
		for _, t := range s.Types {
			if t == snap.Token.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(s.Paths) > 0 {
		return MatchAny(snap.Pointer.String(), s.Paths)
	}
	return true
}

// TransformRun is the pure function a transform applies to one snapshot's
// value. It returns (output, applicable): applicable=false means
// "undefined" per spec §3 ("run: (input) -> output | undefined").
type TransformRun func(input TransformInput) (output any, applicable bool)

// TransformInput is what a transform's run function receives.
type TransformInput struct {
	Snapshot TokenSnapshot
	Options  map[string]any
}

// TransformDefinition is a named, selector-scoped, deterministic
// transformation (spec §3).
type TransformDefinition struct {
	Name     string
	Selector Selector
	Options  map[string]any
	Run      TransformRun
	Group    string
}

// TransformResult is one transform's output for one pointer (spec §3).
type TransformResult struct {
	Transform        string
	Pointer          Pointer
	Output           any
	InputFingerprint string
}

// TransformCacheEntry is what the Transform Cache stores per key (spec §6).
type TransformCacheEntry struct {
	Key       string
	Value     any
	WrittenAt int64 // unix nanos; stamped by the caller, never time.Now() inside entities
	TTL       int64 // seconds; 0 means no expiry
	Metadata  map[string]any
}
