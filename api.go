// Package pickle extends JSON so that values it cannot represent survive a
// round trip: dates, regular expressions, errors, undefined, maps, sets,
// shared and circular references, and user-defined types.
//
// # Wire Format
//
// Encode walks a value and produces a plain tree of maps, slices and scalars.
// Special values are replaced by a JSON-safe form and the key that holds them
// is suffixed with a one-character tag:
//
//	{"created<!D>": 1700000000000, "pattern<!R>": "/ab/gi"}
//
// Built-in tags:
//
//   - D: time.Time as epoch milliseconds
//   - R: *RegExp (or *regexp.Regexp) as "/source/flags"
//   - E: error as [name, message, stack]
//   - U: Undefined as null (arrays only; dropped from objects)
//   - M: *Map (or a Go map with non-string keys) as an object
//   - S: *Set as an array
//   - P: a reference to a value seen earlier, as its path from the root
//   - I: base64 binary, decode only
//
// Arrays carry the tags of their elements in the key of the array itself,
// either per element or, when every element shares a tag, in shorthand:
//
//	{"mixed<![D,,U]>": [0, 1, null], "dates<![*D]>": [0, 1000]}
//
// # Basic Usage
//
//	text, _ := pickle.Stringify(map[string]any{
//	    "when": time.Now(),
//	    "tags": pickle.NewSet("a", "b"),
//	})
//
//	v, _ := pickle.Parse(text)
//
// # Custom Types
//
// Register a Plugin under an unused single-character tag:
//
//	pickle.Custom("V", pickle.Plugin{
//	    Check:  func(_ string, v any) bool { _, ok := v.(Version); return ok },
//	    Encode: func(_ pickle.Path, _ string, v any, _ *pickle.EncodeContext) (any, error) { return v.(Version).String(), nil },
//	    Decode: func(v any, _ pickle.Path, _ *pickle.DecodeContext) (any, error) { return ParseVersion(v.(string)) },
//	})
//
// StructPlugin builds such a plugin for a struct type.
//
// # Carriers
//
// The tagged tree is format neutral. Serializer binds a registry to a Codec
// so the same tree can travel as JSON, YAML, MessagePack, BSON or CBOR (see
// the subpackages), and runs plugin OnSend/OnReceive hooks around transport.
package pickle

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Stringify encodes v with the default registry and returns it as JSON text.
func Stringify(v any) (string, error) {
	return Default().Stringify(v)
}

// Parse decodes JSON text with the default registry. Invalid JSON returns the
// parser's syntax error unchanged.
func Parse(text string) (any, error) {
	return Default().Parse(text)
}

// Stringify encodes v and returns it as JSON text.
func (r *Registry) Stringify(v any) (string, error) {
	tree, err := r.Encode(v)
	if err != nil {
		return "", err
	}
	data, err := marshalJSON(tree)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// marshalJSON encodes v without HTML escaping, so tagged keys keep their
// literal < and >.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Parse parses JSON text and decodes the result.
func (r *Registry) Parse(text string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		return nil, err
	}
	return r.Decode(tree)
}
