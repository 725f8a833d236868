// Package testing provides test utilities for pickle.
package testing

import (
	"fmt"
	"reflect"
	"time"

	"github.com/zoobzio/pickle"
	"github.com/zoobzio/pickle/offload"
)

// FixtureTime is the date carried by Fixture.
var FixtureTime = time.UnixMilli(1700000000000).UTC()

// TestKey returns a valid 32-byte key for offload encryptors.
func TestKey() []byte {
	return []byte("32-byte-key-for-xchacha20-test!!")
}

// TestStore returns a compressed, encrypted offload store for testing.
func TestStore() *offload.MemoryStore {
	enc, err := offload.XChaCha20(TestKey())
	if err != nil {
		panic(err)
	}
	return offload.NewMemoryStore(
		offload.WithCompressor(offload.Zstd()),
		offload.WithEncryptor(enc),
	)
}

// Fixture returns a value that exercises every built-in tag that can be
// encoded, a shared reference and a circular reference. Numbers are left out
// because carriers disagree on numeric types.
func Fixture() map[string]any {
	shared := map[string]any{"id": "shared"}
	root := map[string]any{
		"created": FixtureTime,
		"pattern": &pickle.RegExp{Source: "^a+$", Flags: "i"},
		"failure": pickle.NewError("RangeError", "out of range"),
		"lookup":  pickle.NewMap(pickle.MapEntry{Key: "a", Value: "1"}),
		"tags":    pickle.NewSet("x", "y"),
		"slots":   []any{"first", pickle.Undefined, FixtureTime},
		"left":    shared,
		"right":   shared,
		"missing": pickle.Undefined,
		"enabled": true,
	}
	root["self"] = root
	return root
}

// CheckFixture reports the first difference between v and a decoded Fixture.
func CheckFixture(v any) error {
	root, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("root is %T, want map[string]any", v)
	}

	if d, ok := root["created"].(time.Time); !ok || !d.Equal(FixtureTime) {
		return fmt.Errorf("created = %#v, want %v", root["created"], FixtureTime)
	}
	if re, ok := root["pattern"].(*pickle.RegExp); !ok || re.Source != "^a+$" || re.Flags != "i" {
		return fmt.Errorf("pattern = %#v, want /^a+$/i", root["pattern"])
	}
	if e, ok := root["failure"].(*pickle.Error); !ok || e.Name != "RangeError" || e.Message != "out of range" {
		return fmt.Errorf("failure = %#v, want RangeError: out of range", root["failure"])
	}
	m, ok := root["lookup"].(*pickle.Map)
	if !ok {
		return fmt.Errorf("lookup = %T, want *pickle.Map", root["lookup"])
	}
	if got, _ := m.Get("a"); got != "1" {
		return fmt.Errorf("lookup[a] = %#v, want 1", got)
	}
	s, ok := root["tags"].(*pickle.Set)
	if !ok || s.Len() != 2 || !s.Has("x") || !s.Has("y") {
		return fmt.Errorf("tags = %#v, want {x, y}", root["tags"])
	}

	slots, ok := root["slots"].([]any)
	if !ok || len(slots) != 3 {
		return fmt.Errorf("slots = %#v, want three elements", root["slots"])
	}
	if slots[0] != "first" || slots[1] != pickle.Undefined {
		return fmt.Errorf("slots = %#v, want [first undefined date]", slots)
	}
	if d, ok := slots[2].(time.Time); !ok || !d.Equal(FixtureTime) {
		return fmt.Errorf("slots[2] = %#v, want %v", slots[2], FixtureTime)
	}

	if _, ok := root["missing"]; ok {
		return fmt.Errorf("undefined property survived")
	}
	if root["enabled"] != true {
		return fmt.Errorf("enabled = %#v, want true", root["enabled"])
	}

	left, ok := root["left"].(map[string]any)
	if !ok || left["id"] != "shared" {
		return fmt.Errorf("left = %#v, want shared object", root["left"])
	}
	if !sameMap(root["left"], root["right"]) {
		return fmt.Errorf("left and right are different maps")
	}
	if !sameMap(root["self"], root) {
		return fmt.Errorf("self does not point to the root")
	}
	return nil
}

func sameMap(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != reflect.Map || rb.Kind() != reflect.Map {
		return false
	}
	return ra.Pointer() == rb.Pointer()
}
