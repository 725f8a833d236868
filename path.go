package pickle

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Path locates a value from the root of a tree. Segments are strings for
// object keys and ints for array indices. A Path is also the wire form of a
// pointer: it is emitted as a JSON array of its segments.
type Path []any

// String renders the path as a dotted selector, e.g. $.users[2].name.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range p {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			b.WriteString(".")
			fmt.Fprint(&b, s)
		}
	}
	return b.String()
}

// clone returns a copy that does not share a backing array with p.
func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// child returns a new path extended by seg.
func (p Path) child(seg any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// wire converts the path to the []any carried on the wire.
func (p Path) wire() []any {
	out := make([]any, len(p))
	copy(out, p)
	return out
}

// pathFromWire converts a decoded pointer value back into a Path.
// Numeric segments from any carrier (float64, int8, uint64, json.Number...)
// become ints.
func pathFromWire(v any) (Path, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("pointer value must be an array, got %T", v)
	}
	out := make(Path, rv.Len())
	for i := range out {
		seg := rv.Index(i).Interface()
		if s, ok := seg.(string); ok {
			out[i] = s
			continue
		}
		n, ok := toInt64(seg)
		if !ok {
			return nil, fmt.Errorf("pointer segment %d has unsupported type %T", i, seg)
		}
		out[i] = int(n)
	}
	return out, nil
}

// lookup walks path from root and returns the value found there.
func lookup(root any, path Path) (any, error) {
	cur := root
	for i, seg := range path {
		next, err := step(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("segment %d of %s: %w", i, path, err)
		}
		cur = next
	}
	return cur, nil
}

// step indexes a single segment into a decoded container.
func step(container, seg any) (any, error) {
	switch c := container.(type) {
	case map[string]any:
		key := segmentKey(seg)
		v, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("key %q not found", key)
		}
		return v, nil
	case []any:
		idx, err := segmentIndex(seg, len(c))
		if err != nil {
			return nil, err
		}
		return c[idx], nil
	default:
		return nil, fmt.Errorf("cannot index %T with %v", container, seg)
	}
}

// assign sets seg on container to v.
func assign(container, seg, v any) error {
	switch c := container.(type) {
	case map[string]any:
		c[segmentKey(seg)] = v
		return nil
	case []any:
		idx, err := segmentIndex(seg, len(c))
		if err != nil {
			return err
		}
		c[idx] = v
		return nil
	default:
		return fmt.Errorf("cannot assign into %T", container)
	}
}

func segmentKey(seg any) string {
	switch s := seg.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(s)
	}
}

func segmentIndex(seg any, n int) (int, error) {
	var idx int
	switch s := seg.(type) {
	case int:
		idx = s
	case string:
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("index %q is not a number", s)
		}
		idx = parsed
	default:
		return 0, fmt.Errorf("index has unsupported type %T", seg)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("index %d out of range [0,%d)", idx, n)
	}
	return idx, nil
}
