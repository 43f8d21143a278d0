// Package encoding provides serialization adapters for tokenforge pipeline
// results: standard JSON, and TOON (Token-Optimized Object Notation) for
// token-efficient diagnostic/report payloads handed to an LLM consumer
// (spec §11 domain stack). The teacher carried a hand-rolled reflection-based
// TOON encoder despite already listing the real toon-format/toon-go library
// in its go.mod without ever importing it; tokenforge wires the real
// library instead.
package encoding

import (
	"encoding/json"

	toon "github.com/toon-format/toon-go"

	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// Ensure Encoder implements usecases.OutputEncoder interface.
var _ usecases.OutputEncoder = (*Encoder)(nil)

// Encoder provides JSON and TOON encoding/decoding for build reports, diff
// results, and policy summaries.
type Encoder struct{}

// NewEncoder creates a new Encoder instance.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeJSON serializes a value to JSON bytes.
func (e *Encoder) EncodeJSON(value any) ([]byte, error) {
	return json.Marshal(value)
}

// DecodeJSON deserializes JSON bytes to a value.
func (e *Encoder) DecodeJSON(data []byte, value any) error {
	return json.Unmarshal(data, value)
}

// EncodeTOON serializes a value to TOON format, a compact encoding that
// trims tokens relative to JSON for the same structured payload — used for
// diagnostics and compressed snapshot export surfaces an LLM consumer would
// read (spec §11).
func (e *Encoder) EncodeTOON(value any) ([]byte, error) {
	return toon.Marshal(value)
}
