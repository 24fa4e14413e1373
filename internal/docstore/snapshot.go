package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Snapshot is an immutable copy of a node read from a store.
type Snapshot struct {
	key   string
	value any
}

func NewSnapshot(key string, value any) Snapshot {
	return Snapshot{key: key, value: value}
}

func (s Snapshot) Key() string { return s.key }

func (s Snapshot) Exists() bool { return s.value != nil }

// Value returns the raw tree value (map[string]any, []any, string,
// json.Number, bool or nil).
func (s Snapshot) Value() any { return s.value }

func (s Snapshot) Child(path string) Snapshot {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}
	}
	return Snapshot{key: segs[len(segs)-1], value: lookup(s.value, segs)}
}

// Children returns the direct children in store order. Lists yield keys
// "0".."n-1"; objects are ordered by orderedKeys.
func (s Snapshot) Children() []Snapshot {
	switch t := s.value.(type) {
	case []any:
		out := make([]Snapshot, 0, len(t))
		for i, v := range t {
			if v != nil {
				out = append(out, Snapshot{key: strconv.Itoa(i), value: v})
			}
		}
		return out
	case map[string]any:
		keys := orderedKeys(t)
		out := make([]Snapshot, 0, len(keys))
		for _, k := range keys {
			out = append(out, Snapshot{key: k, value: t[k]})
		}
		return out
	default:
		return nil
	}
}

// String returns the string stored at path relative to this node. ok is
// false when the node is absent or holds a non-string value.
func (s Snapshot) String(path string) (string, bool) {
	v := s.Child(path).value
	str, ok := v.(string)
	return str, ok
}

// Decode converts the node into v through a JSON round trip.
func (s Snapshot) Decode(v any) error {
	if s.value == nil {
		return fmt.Errorf("docstore: decode %q: node does not exist", s.key)
	}
	raw, err := json.Marshal(s.value)
	if err != nil {
		return fmt.Errorf("docstore: decode %q: %w", s.key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore: decode %q: %w", s.key, err)
	}
	return nil
}
