package pickle

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"time"
	"unicode"

	pkgerrors "github.com/pkg/errors"
)

// Built-in tags.
const (
	TagDate      = "D"
	TagRegExp    = "R"
	TagError     = "E"
	TagUndefined = "U"
	TagMap       = "M"
	TagSet       = "S"
	TagPointer   = "P"
	TagBinary    = "I"
)

// builtins is the immutable table of built-in plugins.
var builtins = map[string]Plugin{
	TagDate:      {Check: checkKind(KindDate), Encode: encodeDate, Decode: decodeDate},
	TagRegExp:    {Check: checkKind(KindRegExp), Encode: encodeRegExp, Decode: decodeRegExp},
	TagError:     {Check: checkKind(KindError), Encode: encodeError, Decode: decodeError},
	TagUndefined: {Check: checkKind(KindUndefined), Encode: encodeUndefined, Decode: decodeUndefined},
	TagMap:       {Check: checkKind(KindMap), Encode: encodeMap, Decode: decodeMap},
	TagSet:       {Check: checkKind(KindSet), Encode: encodeSet, Decode: decodeSet},
	TagPointer:   {Check: never, Encode: encodePointer, Decode: decodePointer},
	TagBinary:    {Check: never, Encode: encodeBinary, Decode: decodeBinary},
}

// kindTags maps a Kind to its built-in tag for single-lookup dispatch.
var kindTags = map[Kind]string{
	KindDate:      TagDate,
	KindRegExp:    TagRegExp,
	KindError:     TagError,
	KindUndefined: TagUndefined,
	KindMap:       TagMap,
	KindSet:       TagSet,
}

// BuiltIn returns the built-in plugin for tag.
func BuiltIn(tag string) (Plugin, bool) {
	p, ok := builtins[tag]
	return p, ok
}

// TagForKind returns the built-in tag that handles values of kind k.
func TagForKind(k Kind) (string, bool) {
	tag, ok := kindTags[k]
	return tag, ok
}

func checkKind(k Kind) func(string, any) bool {
	return func(_ string, v any) bool { return KindOf(v) == k }
}

func never(string, any) bool { return false }

// --- D ---

func encodeDate(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli(), nil
	case *time.Time:
		return t.UnixMilli(), nil
	}
	return nil, fmt.Errorf("expected time.Time, got %T", v)
}

func decodeDate(v any, _ Path, _ *DecodeContext) (any, error) {
	ms, ok := toInt64(v)
	if !ok {
		return nil, fmt.Errorf("date must be epoch milliseconds, got %T", v)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// --- R ---

func encodeRegExp(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	switch r := v.(type) {
	case *RegExp:
		return r.String(), nil
	case *regexp.Regexp:
		return "/" + r.String() + "/", nil
	}
	return nil, fmt.Errorf("expected regular expression, got %T", v)
}

func decodeRegExp(v any, _ Path, _ *DecodeContext) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("regexp must be a string, got %T", v)
	}
	return ParseRegExp(s), nil
}

// --- E ---

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func encodeError(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	err, ok := v.(error)
	if !ok {
		return nil, fmt.Errorf("expected error, got %T", v)
	}
	if e, ok := err.(*Error); ok {
		return []any{errorDisplayName(e.Name), e.Message, e.Stack}, nil
	}

	var stack string
	var st stackTracer
	if errors.As(err, &st) {
		stack = fmt.Sprintf("%+v", st.StackTrace())
	}
	return []any{errorTypeName(err), err.Error(), stack}, nil
}

func errorDisplayName(name string) string {
	if name == "" {
		return "Error"
	}
	return name
}

// errorTypeName names an error after its exported Go type, or "Error" for
// anonymous and unexported types such as those from errors.New.
func errorTypeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" || !unicode.IsUpper([]rune(name)[0]) {
		return "Error"
	}
	return name
}

func decodeError(v any, path Path, ctx *DecodeContext) (any, error) {
	if s, ok := v.(string); ok {
		return ctx.registry.newError("Error", s, ""), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Len() < 2 {
		return nil, fmt.Errorf("error must be [name, message, stack], got %T", v)
	}
	field := func(i int) string {
		if i >= rv.Len() {
			return ""
		}
		s, _ := rv.Index(i).Interface().(string)
		return s
	}
	return ctx.registry.newError(field(0), field(1), field(2)), nil
}

// --- U ---

func encodeUndefined(Path, string, any, *EncodeContext) (any, error) { return nil, nil }

func decodeUndefined(any, Path, *DecodeContext) (any, error) { return Undefined, nil }

// --- M ---

func encodeMap(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	if m, ok := v.(*Map); ok {
		out := make(map[string]any, m.Len())
		for _, e := range m.entries {
			out[stringKey(e.Key)] = e.Value
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[stringKey(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out, nil
}

// stringKey coerces a map key to the string used as an object property.
func stringKey(k any) string {
	switch s := k.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(k)
}

func decodeMap(v any, _ Path, _ *DecodeContext) (any, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, fmt.Errorf("map must be an object, got %T", v)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := &Map{index: make(map[any]int, len(keys))}
	for _, k := range keys {
		m.Set(k, obj[k])
	}
	return m, nil
}

// --- S ---

func encodeSet(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	s, ok := v.(*Set)
	if !ok {
		return nil, fmt.Errorf("expected *Set, got %T", v)
	}
	return s.Values(), nil
}

func decodeSet(v any, _ Path, _ *DecodeContext) (any, error) {
	items, ok := asArray(v)
	if !ok {
		return nil, fmt.Errorf("set must be an array, got %T", v)
	}
	return NewSet(items...), nil
}

// --- P ---

func encodePointer(_ Path, _ string, v any, _ *EncodeContext) (any, error) {
	target, ok := v.(Path)
	if !ok {
		return nil, fmt.Errorf("pointer target must be a Path, got %T", v)
	}
	return target.wire(), nil
}

func decodePointer(v any, path Path, ctx *DecodeContext) (any, error) {
	target, err := pathFromWire(v)
	if err != nil {
		return nil, err
	}
	ctx.Defer(target, path)
	return nil, nil
}

// --- I ---

func encodeBinary(Path, string, any, *EncodeContext) (any, error) {
	return nil, ErrUnsupported
}

func decodeBinary(v any, _ Path, _ *DecodeContext) (any, error) {
	switch b := v.(type) {
	case string:
		out, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, fmt.Errorf("binary payload: %w", err)
		}
		return out, nil
	case []byte:
		return b, nil
	}
	return nil, fmt.Errorf("binary must be a base64 string, got %T", v)
}

// asObject views a decoded value as a string-keyed object.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asArray views a decoded value as a list of elements. Byte slices are
// scalars, not arrays.
func asArray(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
