package pickle

import (
	"reflect"
	"regexp"
	"strings"
)

// UndefinedType is the type of Undefined.
type UndefinedType struct{}

// Undefined marks a slot that holds no value, as distinct from null.
// Inside arrays it is preserved (tag U); as an object property it is dropped.
var Undefined = UndefinedType{}

func (UndefinedType) String() string { return "undefined" }

// RegExp is a regular expression in its portable source/flags form.
type RegExp struct {
	Source string
	Flags  string
}

var regExpLiteral = regexp.MustCompile(`^/(.*)/([dgimsuvy]*)$`)

// ParseRegExp parses the /source/flags literal form. A string that does not
// match the literal form is taken whole as the source, with no flags.
func ParseRegExp(s string) *RegExp {
	if m := regExpLiteral.FindStringSubmatch(s); m != nil {
		return &RegExp{Source: m[1], Flags: m[2]}
	}
	return &RegExp{Source: s}
}

// String returns the /source/flags literal.
func (r *RegExp) String() string {
	return "/" + r.Source + "/" + r.Flags
}

// Compile builds a Go regexp. The i, m and s flags map onto RE2 flags; the
// remaining flags describe matching state and are ignored.
func (r *RegExp) Compile() (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, f := range r.Flags {
		switch f {
		case 'i', 'm', 's':
			flags.WriteRune(f)
		}
	}
	if flags.Len() == 0 {
		return regexp.Compile(r.Source)
	}
	return regexp.Compile("(?" + flags.String() + ")" + r.Source)
}

// Error is the portable form of an error value: the name of its type, its
// message and its stack as text. Decoded errors are always *Error. When the
// registry knows a constructor for Name, Unwrap returns the error it built.
type Error struct {
	Name    string
	Message string
	Stack   string

	native error
}

// NewError returns an Error with the given name and message.
func NewError(name, message string) *Error {
	return &Error{Name: name, Message: message}
}

func (e *Error) Error() string {
	name := e.Name
	if name == "" {
		name = "Error"
	}
	if e.Message == "" {
		return name
	}
	return name + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.native
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is an insertion-ordered collection keyed by arbitrary values.
// Comparable keys are unique; non-comparable keys are never merged.
type Map struct {
	entries []MapEntry
	index   map[any]int
}

// NewMap returns a Map holding entries in order.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{index: make(map[any]int, len(entries))}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set stores value under key, keeping the original position of an existing key.
func (m *Map) Set(key, value any) {
	if m.index == nil {
		m.index = make(map[any]int)
	}
	if hashable(key) {
		if i, ok := m.index[key]; ok {
			m.entries[i].Value = value
			return
		}
		m.index[key] = len(m.entries)
	}
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if !hashable(key) {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the entries in insertion order.
func (m *Map) Entries() []MapEntry {
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Set is an insertion-ordered collection of distinct values.
type Set struct {
	members []any
	index   map[any]struct{}
}

// NewSet returns a Set of the given members, dropping duplicates.
func NewSet(members ...any) *Set {
	s := &Set{index: make(map[any]struct{}, len(members))}
	for _, v := range members {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v any) bool {
	if s.index == nil {
		s.index = make(map[any]struct{})
	}
	if hashable(v) {
		if _, ok := s.index[v]; ok {
			return false
		}
		s.index[v] = struct{}{}
	}
	s.members = append(s.members, v)
	return true
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	if !hashable(v) {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.members) }

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	out := make([]any, len(s.members))
	copy(out, s.members)
	return out
}

// hashable reports whether v can be used as a Go map key without panicking.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	t := reflect.TypeOf(v)
	if !t.Comparable() {
		return false
	}
	// Interface-holding structs and arrays may still hold uncomparable values.
	switch t.Kind() {
	case reflect.Struct, reflect.Array, reflect.Interface:
		return reflect.ValueOf(v).Comparable()
	}
	return true
}
