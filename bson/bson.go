// Package bson provides a BSON codec implementation.
//
// BSON documents must have an object at the root, so trees whose root is a
// scalar cannot be carried. Encode always produces an object for object and
// array roots.
package bson

import (
	"github.com/zoobzio/pickle"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bsonCodec implements pickle.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() pickle.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v. Decoding into *any yields plain
// containers rather than bson.D, bson.M and bson.A.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*any)
	if !ok {
		return bson.Unmarshal(data, v)
	}
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = normalize(doc)
	return nil
}

// normalize converts driver container types into plain maps and slices.
func normalize(v any) any {
	switch x := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case primitive.A:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case primitive.Binary:
		return x.Data
	}
	return pickle.Plain(v)
}
