package aqua

import (
	"bytes"
	"encoding/json"

	"aquachain/internal/ordered"
)

// CanonicalJSON serializes v with keys in insertion order and no
// whitespace, per spec §9. Values that are already an *ordered.Map (or
// contain one) marshal in the order they were inserted; plain Go structs
// marshal in their declared field order, which encoding/json already
// preserves; encoding/json's default output already carries no
// insignificant whitespace, so the only extra work here is guaranteeing
// map key order for the dynamic (map-shaped) parts of a revision.
func CanonicalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	// json.Marshal never introduces whitespace on its own, but guard
	// against a future caller feeding us pre-indented bytes via
	// json.RawMessage by compacting defensively.
	var out bytes.Buffer
	if err := json.Compact(&out, b); err != nil {
		return "", err
	}
	return out.String(), nil
}

// NewOrderedMap is re-exported for callers assembling dynamic revision
// payloads (form fields, legacy metadata) that must preserve insertion
// order through hashing.
func NewOrderedMap() *ordered.Map {
	return ordered.New()
}
