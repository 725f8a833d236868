package pickle

import (
	"math"
	"reflect"
	"sort"
	"strconv"
)

// MaxDepth bounds how deeply Encode and Decode recurse. Deeper input fails
// with ErrTooDeep rather than exhausting the stack.
const MaxDepth = 10000

// Encode converts v into a JSON-safe tree using the default registry.
func Encode(v any) (any, error) {
	return Default().Encode(v)
}

// Encode converts v into a JSON-safe tree whose object keys carry type tags.
//
// The root is walked as an object: its properties become keys of the result.
// A root array becomes an object keyed by index ("0", "1", ...). A root that
// is neither is returned as its plugin encodes it, without a tag.
func (r *Registry) Encode(v any) (any, error) {
	out, _, err := r.encode(v)
	return out, err
}

// encode runs one traversal and also returns the custom plugin hits.
func (r *Registry) encode(v any) (any, []Hit, error) {
	e := &encoder{
		view:    r.snapshot(),
		ctx:     &EncodeContext{registry: r},
		visited: make(map[identity]Path),
	}
	out, err := e.root(v)
	if err != nil {
		return nil, nil, err
	}
	return out, e.hits, nil
}

// encoder holds the state of one Encode call.
type encoder struct {
	view    *view
	ctx     *EncodeContext
	visited map[identity]Path
	hits    []Hit
}

func (e *encoder) root(v any) (any, error) {
	switch KindOf(v) {
	case KindObject:
		rv := reflect.ValueOf(v)
		e.mark(rv, Path{})
		return e.object(Path{}, rv, 0)
	case KindArray:
		rv := reflect.ValueOf(v)
		e.mark(rv, Path{})
		return e.rootArray(rv)
	}
	out, _, err := e.value(Path{}, "", v, 0)
	return out, err
}

// value encodes one property or element and returns its tag.
func (e *encoder) value(path Path, key string, v any, depth int) (any, string, error) {
	if depth > MaxDepth {
		return nil, "", newTransformError(ErrTooDeep, "encode", "", path, nil)
	}

	kind := KindOf(v)
	if tag, ok := TagForKind(kind); ok {
		out, err := builtins[tag].Encode(path, key, v, e.ctx)
		if err != nil {
			return nil, "", newTransformError(ErrEncode, "encode", tag, path, err)
		}
		return out, tag, nil
	}

	for _, c := range e.view.custom {
		if !c.Plugin.Check(key, v) {
			continue
		}
		out, err := c.Plugin.Encode(path, key, v, e.ctx)
		if err != nil {
			return nil, "", newTransformError(ErrEncode, "encode", c.Tag, path, err)
		}
		e.hits = append(e.hits, Hit{Tag: c.Tag, Path: path.clone(), Value: v})
		return out, c.Tag, nil
	}

	switch kind {
	case KindArray, KindObject:
		rv := reflect.ValueOf(v)
		if first, seen := e.seen(rv); seen {
			out, err := builtins[TagPointer].Encode(path, key, first, e.ctx)
			if err != nil {
				return nil, "", newTransformError(ErrEncode, "encode", TagPointer, path, err)
			}
			return out, TagPointer, nil
		}
		e.mark(rv, path)
		if kind == KindArray {
			return e.array(path, rv, depth)
		}
		out, err := e.object(path, rv, depth)
		return out, "", err
	case KindNull, KindUnsupported:
		return nil, "", nil
	case KindNumber:
		if !finite(v) {
			return nil, "", nil
		}
	}
	return v, "", nil
}

// finite reports false for NaN and infinities, which JSON cannot hold.
func finite(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return true
}

// seen reports the first path of rv, or of any pointer target behind it.
func (e *encoder) seen(rv reflect.Value) (Path, bool) {
	for {
		if id, ok := identityOf(rv); ok {
			if first, seen := e.visited[id]; seen {
				return first, true
			}
		}
		if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
			return nil, false
		}
		rv = rv.Elem()
	}
}

// mark records rv and every pointer target behind it as first seen at path.
func (e *encoder) mark(rv reflect.Value, path Path) {
	for {
		if id, ok := identityOf(rv); ok {
			if _, seen := e.visited[id]; !seen {
				e.visited[id] = path.clone()
			}
		}
		if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
			return
		}
		rv = rv.Elem()
	}
}

func (e *encoder) array(path Path, rv reflect.Value, depth int) (any, string, error) {
	rv = indirect(rv)
	n := rv.Len()
	out := make([]any, n)
	tags := make([]string, n)
	for i := 0; i < n; i++ {
		enc, tag, err := e.value(path.child(i), strconv.Itoa(i), rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, "", err
		}
		out[i], tags[i] = enc, tag
	}
	return out, arrayTag(tags), nil
}

func (e *encoder) rootArray(rv reflect.Value) (any, error) {
	rv = indirect(rv)
	out := make(map[string]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		name := strconv.Itoa(i)
		enc, tag, err := e.value(Path{name}, name, rv.Index(i).Interface(), 1)
		if err != nil {
			return nil, err
		}
		out[JoinKey(name, tag)] = enc
	}
	return out, nil
}

func (e *encoder) object(path Path, rv reflect.Value, depth int) (map[string]any, error) {
	rv = indirect(rv)
	out := make(map[string]any)
	err := eachProperty(rv, func(name string, v any) error {
		switch KindOf(v) {
		case KindUndefined, KindUnsupported:
			return nil
		}
		enc, tag, err := e.value(path.child(name), name, v, depth+1)
		if err != nil {
			return err
		}
		out[JoinKey(name, tag)] = enc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachProperty visits the properties of an object-kind value in a stable order:
// sorted keys for maps, declaration order for structs.
func eachProperty(rv reflect.Value, fn func(name string, v any) error) error {
	switch rv.Kind() {
	case reflect.Map:
		if m, ok := rv.Interface().(map[string]any); ok {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if err := fn(k, m[k]); err != nil {
					return err
				}
			}
			return nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if err := fn(k.String(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for _, f := range fieldsOf(rv.Type()) {
			fv, ok := fieldByIndex(rv, f.index)
			if !ok {
				continue
			}
			if f.omitEmpty && fv.IsZero() {
				continue
			}
			if err := fn(f.name, fv.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// indirect follows pointers and interfaces to the underlying value.
func indirect(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}
