package pickle

import (
	"fmt"
	"reflect"
)

// Plain rewrites a carrier-decoded tree into map[string]any and []any
// containers. Named map and slice types become their plain forms and maps
// with non-string keys have their keys stringified. Byte slices and scalars
// are returned unchanged.
func Plain(v any) any {
	switch x := v.(type) {
	case nil, bool, string, float64, []byte:
		return v
	case map[string]any:
		for k, item := range x {
			x[k] = Plain(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = Plain(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = Plain(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			var key string
			if k.Kind() == reflect.String {
				key = k.String()
			} else {
				key = fmt.Sprint(k.Interface())
			}
			out[key] = Plain(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Plain(rv.Index(i).Interface())
		}
		return out
	}
	return v
}
