// Package ordered provides a minimal insertion-order-preserving map used
// wherever the wire format or the hash algebra requires keys to serialize
// in the order they were inserted rather than Go's default sorted-map
// JSON encoding.
package ordered

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is an insertion-ordered string-keyed map that marshals to JSON with
// its keys in insertion order and no indentation, matching the "canonical
// JSON" contract of spec §4.B and §9.
type Map struct {
	keys   []string
	values map[string]interface{}
}

// New returns an empty ordered map.
func New() *Map {
	return &Map{values: make(map[string]interface{})}
}

// Set inserts or updates key. Updating an existing key does not change its
// position, matching how a real insertion-ordered map (e.g. a JS object or
// Python dict) behaves.
func (m *Map) Set(key string, value interface{}) *Map {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// MarshalJSON writes {"k1":v1,"k2":v2,...} with no extraneous whitespace,
// keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("ordered: marshal value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
