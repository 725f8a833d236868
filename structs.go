package pickle

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("json")
}

// structField describes how one exported struct field is emitted.
type structField struct {
	index     []int
	name      string
	omitEmpty bool
}

var structFields sync.Map // reflect.Type -> []structField

// fieldsOf returns the emitted fields of a struct type, following the json
// tag conventions: renamed by tag, "-" skipped, untagged embedded structs
// flattened.
func fieldsOf(t reflect.Type) []structField {
	if cached, ok := structFields.Load(t); ok {
		return cached.([]structField)
	}
	fields := collectFields(t, nil)
	actual, _ := structFields.LoadOrStore(t, fields)
	return actual.([]structField)
}

func collectFields(t reflect.Type, parent []int) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int{}, parent...), i)

		name, opts := parseJSONTag(sf.Tag.Get("json"))
		if name == "-" && opts == "" {
			continue
		}

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, collectFields(ft, index)...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out = append(out, structField{
			index:     index,
			name:      name,
			omitEmpty: strings.Contains(opts, "omitempty"),
		})
	}
	return out
}

func parseJSONTag(tag string) (name, opts string) {
	name, opts, _ = strings.Cut(tag, ",")
	return name, opts
}

// fieldByIndex is reflect.Value.FieldByIndex that stops at nil embedded pointers.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, idx := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = rv.Field(idx)
	}
	return rv, true
}

// StructPlugin returns a Plugin that carries values of the struct type T
// (or *T) under a single tag. Encoded values are objects keyed by the json
// field names reported by sentinel; decoding rebuilds a *T through JSON.
//
// Field values are emitted as-is, so they must be representable by the
// carrier codec.
func StructPlugin[T any]() Plugin {
	typ := reflect.TypeFor[T]()
	meta := sentinel.Scan[T]()

	type field struct {
		index []int
		name  string
	}
	fields := make([]field, 0, len(meta.Fields))
	for _, fm := range meta.Fields {
		if !typ.FieldByIndex(fm.Index).IsExported() {
			continue
		}
		name, _ := parseJSONTag(fm.Tags["json"])
		if name == "-" {
			continue
		}
		if name == "" {
			name = fm.Name
		}
		fields = append(fields, field{index: fm.Index, name: name})
	}

	return Plugin{
		Check: func(_ string, v any) bool {
			t := reflect.TypeOf(v)
			return t == typ || t == reflect.PointerTo(typ)
		},
		Encode: func(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
			rv := indirect(reflect.ValueOf(v))
			if rv.Kind() != reflect.Struct {
				return nil, fmt.Errorf("expected %s, got %T", typ, v)
			}
			out := make(map[string]any, len(fields))
			for _, f := range fields {
				fv, ok := fieldByIndex(rv, f.index)
				if !ok {
					continue
				}
				out[f.name] = fv.Interface()
			}
			return out, nil
		},
		Decode: func(v any, _ Path, _ *DecodeContext) (any, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			out := new(T)
			if err := json.Unmarshal(data, out); err != nil {
				return nil, fmt.Errorf("rebuild %s: %w", typ, err)
			}
			return out, nil
		},
	}
}
