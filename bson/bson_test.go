package bson

import (
	"testing"

	"github.com/zoobzio/pickle"
	pickletest "github.com/zoobzio/pickle/testing"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/bson" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/bson")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `bson:"name"`
		Value int    `bson:"value"`
	}

	original := TestStruct{Name: "test", Value: 42}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored TestStruct
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored != original {
		t.Errorf("round-trip failed: got %+v, want %+v", restored, original)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	var v any
	if err := New().Unmarshal([]byte("invalid bson"), &v); err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}

func TestNormalize(t *testing.T) {
	in := primitive.D{
		{Key: "doc", Value: primitive.D{{Key: "k", Value: "v"}}},
		{Key: "arr", Value: primitive.A{primitive.M{"m": true}}},
		{Key: "bin", Value: primitive.Binary{Data: []byte("raw")}},
	}

	out, ok := normalize(in).(map[string]any)
	if !ok {
		t.Fatalf("normalize() = %T, want map[string]any", normalize(in))
	}
	if doc, ok := out["doc"].(map[string]any); !ok || doc["k"] != "v" {
		t.Errorf("doc = %#v, want {k: v}", out["doc"])
	}
	arr, ok := out["arr"].([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("arr = %#v, want one element", out["arr"])
	}
	if m, ok := arr[0].(map[string]any); !ok || m["m"] != true {
		t.Errorf("arr[0] = %#v, want {m: true}", arr[0])
	}
	if b, ok := out["bin"].([]byte); !ok || string(b) != "raw" {
		t.Errorf("bin = %#v, want []byte(raw)", out["bin"])
	}
}

func TestTaggedTree(t *testing.T) {
	s := pickle.NewSerializer(New(), pickle.WithRegistry(pickle.NewRegistry()))
	ctx := t.Context()

	data, err := s.Marshal(ctx, pickletest.Fixture())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	v, err := s.Unmarshal(ctx, data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if err := pickletest.CheckFixture(v); err != nil {
		t.Error(err)
	}
}
