package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// normalize converts an arbitrary Go value into the tree form the stores
// keep: map[string]any, []any, string, json.Number, bool. Empty objects and
// lists collapse to nil, so writing an empty list leaves no node behind.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode value: %w", err)
	}
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return prune(v), nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("docstore: decode value: %w", err)
	}
	return v, nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if p := prune(child); p == nil {
				delete(t, k)
			} else {
				t[k] = p
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		kept := 0
		for i := range t {
			t[i] = prune(t[i])
			if t[i] != nil {
				kept++
			}
		}
		if kept == 0 {
			return nil
		}
		if kept != len(t) {
			// holes turn the list into a keyed object
			m := make(map[string]any, kept)
			for i, child := range t {
				if child != nil {
					m[strconv.Itoa(i)] = child
				}
			}
			return m
		}
		return t
	default:
		return v
	}
}

func lookup(v any, segs []string) any {
	cur := v
	for _, seg := range segs {
		switch t := cur.(type) {
		case map[string]any:
			cur = t[seg]
		case []any:
			i, ok := listIndex(seg, len(t))
			if !ok {
				return nil
			}
			cur = t[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// setIn returns root with value placed at segs. Intermediate nodes are
// created as objects; a nil value deletes the leaf.
func setIn(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	head, rest := segs[0], segs[1:]
	switch t := root.(type) {
	case []any:
		if i, ok := listIndex(head, len(t)); ok {
			out := make([]any, len(t))
			copy(out, t)
			out[i] = setIn(t[i], rest, value)
			return prune(out)
		}
		root = listToMap(t)
	case map[string]any:
	default:
		root = map[string]any{}
	}
	m := root.(map[string]any)
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if child := setIn(out[head], rest, value); child == nil {
		delete(out, head)
	} else {
		out[head] = child
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func listToMap(l []any) map[string]any {
	m := make(map[string]any, len(l))
	for i, v := range l {
		if v != nil {
			m[strconv.Itoa(i)] = v
		}
	}
	return m
}

func listIndex(seg string, n int) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= n || strconv.Itoa(i) != seg {
		return 0, false
	}
	return i, true
}

// orderedKeys sorts integer-like keys numerically ahead of all other keys,
// which are sorted lexicographically.
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, iok := intKey(keys[i])
		nj, jok := intKey(keys[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func intKey(k string) (int64, bool) {
	n, err := strconv.ParseInt(k, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != k {
		return 0, false
	}
	return n, true
}

// maxIntKey returns the largest integer-like child key of v, or 0.
func maxIntKey(v any) int64 {
	var max int64
	switch t := v.(type) {
	case map[string]any:
		for k := range t {
			if n, ok := intKey(k); ok && n > max {
				max = n
			}
		}
	case []any:
		if len(t) > 0 {
			max = int64(len(t) - 1)
		}
	}
	return max
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
