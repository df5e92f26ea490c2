package builder

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a JSON object whose keys marshal in insertion order.
//
// NocoBase reads grid row order from object key order: gridSettings
// stores no sortIndex for rows, so the rows/sizes objects themselves
// carry the layout. encoding/json sorts plain map keys, which would
// shuffle rows keyed by random UIDs, so every rows/sizes write goes
// through this type instead.
type OrderedMap struct {
	keys []string
	vals map[string]any
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: map[string]any{}}
}

// Set stores v under key. A key keeps its original position when set
// again.
func (m *OrderedMap) Set(key string, v any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the object with keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
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
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, fmt.Errorf("marshaling key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeOrdered parses a JSON object preserving its key order. Empty
// or null input yields an empty map.
func DecodeOrdered(data []byte) (*OrderedMap, error) {
	m := NewOrderedMap()
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if tok == nil {
		return m, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decoding object: unexpected token %v", tok)
	}

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding object key: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("decoding object key: unexpected token %v", kt)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding value for %q: %w", key, err)
		}
		m.Set(key, v)
	}
	return m, nil
}
