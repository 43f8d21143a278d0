// Canonical JSON encoding and content fingerprinting, shared by the
// Dependency Cache, Transform Engine, and Diff Engine (spec §3, §4.3,
// §4.6 all require the same "sorted keys, normalised numbers" property).
package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Canonicalize produces a value with object keys sorted and numbers
// normalized to Go's default float formatting, so that two semantically
// equal values serialize identically regardless of construction order.
func Canonicalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return canonicalizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Canonicalize(elem)
		}
		return out
	default:
		return v
	}
}

func canonicalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Canonicalize(v)
	}
	return out
}

// CanonicalJSON serializes value to JSON with object keys sorted, using
// encoding/json's stable marshalling of Go maps (sorted lexicographically
// by key since Go 1.12).
func CanonicalJSON(value any) ([]byte, error) {
	return json.Marshal(Canonicalize(value))
}

// SortedKeys returns the keys of m in lexicographic order, used wherever
// extension or context maps need deterministic iteration (spec §4.6
// "set equality with deterministic ordering for extensions keys").
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentFingerprint computes the SHA-256 hex digest of the canonical JSON
// encoding of parts, joined by a null separator. Used for the persisted
// DependencySnapshot entry hash (spec §3, §6), where a stable, inspectable,
// collision-resistant digest is required.
func ContentFingerprint(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		b, err := CanonicalJSON(part)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", part))
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FastFingerprint computes an xxhash-based fingerprint of parts, used for
// in-process cache keys (the Transform Engine's inputFingerprint, spec
// §4.4) where speed matters and the key never leaves the process, so
// collision-resistance against adversarial input is not a requirement.
func FastFingerprint(parts ...any) string {
	h := xxhash.New()
	for _, part := range parts {
		b, err := CanonicalJSON(part)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", part))
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
