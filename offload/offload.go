// Package offload moves large byte payloads out of band.
//
// A Blob inside an encoded value travels as a small reference holding its
// content address and size. Registered with a Serializer's registry, the
// offload plugin stores blob bytes when a value is sent and fetches them back
// when it is received:
//
//	store := offload.NewMemoryStore(offload.WithCompressor(offload.Zstd()))
//	reg := pickle.NewRegistry()
//	_ = offload.Register(reg, store)
//	s := pickle.NewSerializer(json.New(), pickle.WithRegistry(reg))
//
//	data, _ := s.Send(ctx, map[string]any{"report": offload.NewBlob(pdf)})
//	v, _ := s.Receive(ctx, data)
//
// Blobs smaller than the configured threshold travel inline instead.
package offload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/zoobzio/pickle"
)

// Tag is the tag blobs are registered under by Register.
const Tag = "B"

// Offload errors.
var (
	ErrNotFound         = errors.New("blob not found")
	ErrMalformed        = errors.New("malformed blob reference")
	ErrSizeMismatch     = errors.New("blob size mismatch")
	ErrIntegrity        = errors.New("blob content does not match its address")
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Blob is a byte payload carried out of band. ID is the content address of
// Data and is derived on encode when empty.
type Blob struct {
	ID   string
	Size int
	Data []byte
}

// NewBlob wraps data in a Blob.
func NewBlob(data []byte) *Blob {
	return &Blob{Size: len(data), Data: data}
}

// Option configures the offload plugin.
type Option func(*config)

type config struct {
	hasher    Hasher
	threshold int
}

// WithHasher sets the hasher used to address blob content.
// BLAKE3 is used otherwise.
func WithHasher(h Hasher) Option {
	return func(c *config) {
		c.hasher = h
	}
}

// WithThreshold inlines blobs smaller than n bytes in the encoded value
// instead of storing them.
func WithThreshold(n int) Option {
	return func(c *config) {
		c.threshold = n
	}
}

// Register adds the offload plugin to r under Tag.
func Register(r *pickle.Registry, store Store, opts ...Option) error {
	return r.Register(Tag, Plugin(store, opts...))
}

// Plugin returns a pickle.Plugin handling Blob and *Blob values.
func Plugin(store Store, opts ...Option) pickle.Plugin {
	c := &config{hasher: BLAKE3()}
	for _, opt := range opts {
		opt(c)
	}

	return pickle.Plugin{
		Check: func(_ string, value any) bool {
			_, ok := asBlob(value)
			return ok
		},
		Encode: func(_ pickle.Path, _ string, value any, _ *pickle.EncodeContext) (any, error) {
			b, _ := asBlob(value)
			ref := map[string]any{
				"id":   c.id(b),
				"size": len(b.Data),
			}
			if c.inline(b) {
				ref["data"] = base64.StdEncoding.EncodeToString(b.Data)
			}
			return ref, nil
		},
		Decode: func(value any, _ pickle.Path, _ *pickle.DecodeContext) (any, error) {
			return parseRef(value)
		},
		OnSend: func(ctx context.Context, _ pickle.Path, value any) error {
			b, _ := asBlob(value)
			if c.inline(b) {
				return nil
			}
			return store.Put(ctx, c.id(b), b.Data)
		},
		OnReceive: func(ctx context.Context, _ pickle.Path, value any) error {
			b, ok := value.(*Blob)
			if !ok {
				return fmt.Errorf("%w: decoded %T", ErrMalformed, value)
			}
			data := b.Data
			if data == nil {
				var err error
				if data, err = store.Get(ctx, b.ID); err != nil {
					return err
				}
			}
			if len(data) != b.Size {
				return fmt.Errorf("%w: %s is %d bytes, reference says %d", ErrSizeMismatch, b.ID, len(data), b.Size)
			}
			if !verify(c.hasher, b.ID, data) {
				return fmt.Errorf("%w: %s", ErrIntegrity, b.ID)
			}
			b.Data = data
			return nil
		},
	}
}

func (c *config) id(b *Blob) string {
	if b.ID != "" {
		return b.ID
	}
	return address(c.hasher, b.Data)
}

func (c *config) inline(b *Blob) bool {
	return len(b.Data) < c.threshold
}

func asBlob(value any) (*Blob, bool) {
	switch b := value.(type) {
	case *Blob:
		return b, b != nil
	case Blob:
		return &b, true
	}
	return nil, false
}

// parseRef reads a blob reference. Data is left nil unless the blob
// travelled inline.
func parseRef(value any) (*Blob, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrMalformed, value)
	}

	id, ok := m["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformed)
	}

	size, ok := toInt(m["size"])
	if !ok || size < 0 {
		return nil, fmt.Errorf("%w: bad size %v", ErrMalformed, m["size"])
	}

	b := &Blob{ID: id, Size: size}
	switch data := m["data"].(type) {
	case nil:
	case string:
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		b.Data = raw
	case []byte:
		b.Data = data
	default:
		return nil, fmt.Errorf("%w: data is %T", ErrMalformed, data)
	}
	return b, nil
}

// toInt reads a carrier-decoded number. Carriers disagree on numeric types.
func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true // #nosec G115 -- blob sizes fit in int
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}
