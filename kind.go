package pickle

import (
	"reflect"
	"regexp"
	"time"
	"unsafe"
)

// Kind classifies a value for dispatch. Built-in plugins are selected by Kind
// alone; custom plugins see values of every Kind that has no built-in tag.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDate
	KindRegExp
	KindError
	KindUndefined
	KindMap
	KindSet
	KindArray
	KindObject
	KindUnsupported
)

var kindNames = [...]string{
	KindNull:        "null",
	KindBool:        "bool",
	KindNumber:      "number",
	KindString:      "string",
	KindDate:        "date",
	KindRegExp:      "regexp",
	KindError:       "error",
	KindUndefined:   "undefined",
	KindMap:         "map",
	KindSet:         "set",
	KindArray:       "array",
	KindObject:      "object",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var errorType = reflect.TypeFor[error]()

// KindOf returns the Kind of v.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return KindNumber
	case time.Time:
		return KindDate
	case *time.Time:
		if x == nil {
			return KindNull
		}
		return KindDate
	case *RegExp:
		if x == nil {
			return KindNull
		}
		return KindRegExp
	case *regexp.Regexp:
		if x == nil {
			return KindNull
		}
		return KindRegExp
	case UndefinedType:
		return KindUndefined
	case *Map:
		if x == nil {
			return KindNull
		}
		return KindMap
	case *Set:
		if x == nil {
			return KindNull
		}
		return KindSet
	case []byte:
		return KindString
	case []any:
		if x == nil {
			return KindNull
		}
		return KindArray
	case map[string]any:
		if x == nil {
			return KindNull
		}
		return KindObject
	case error:
		if isNilValue(v) {
			return KindNull
		}
		return KindError
	}
	return kindOfReflect(reflect.ValueOf(v))
}

// kindOfReflect classifies named and typed containers the type switch misses.
func kindOfReflect(rv reflect.Value) Kind {
	switch rv.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindString
		}
		return KindArray
	case reflect.Array:
		return KindArray
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject
		}
		return KindMap
	case reflect.Struct:
		return KindObject
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Implements(errorType) {
			return KindError
		}
		return KindOf(rv.Elem().Interface())
	default:
		return KindUnsupported
	}
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// identity is the reference identity of a container for the visited-set.
// The type is part of it: a struct pointer and a pointer to its first field
// share an address.
type identity struct {
	ptr  unsafe.Pointer
	len  int
	kind reflect.Kind
	typ  reflect.Type
}

// identityOf returns the identity of rv. Values without reference semantics
// (struct values, arrays, zero-length slices) have none.
func identityOf(rv reflect.Value) (identity, bool) {
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{ptr: rv.UnsafePointer(), kind: rv.Kind(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return identity{}, false
		}
		return identity{ptr: rv.UnsafePointer(), len: rv.Len(), kind: reflect.Slice, typ: rv.Type()}, true
	}
	return identity{}, false
}

// toInt64 converts any numeric value a carrier may produce.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
		if f, ok := v.(interface{ Float64() (float64, error) }); ok {
			if x, err := f.Float64(); err == nil {
				return int64(x), true
			}
		}
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint()), true // #nosec G115 -- wire indices and timestamps fit in int64
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), true
	}
	return 0, false
}
