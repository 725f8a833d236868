package offload

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/pickle"
	"github.com/zoobzio/pickle/json"
)

func newSerializer(t *testing.T, store Store, opts ...Option) *pickle.Serializer {
	t.Helper()
	reg := pickle.NewRegistry()
	require.NoError(t, Register(reg, store, opts...))
	return pickle.NewSerializer(json.New(), pickle.WithRegistry(reg))
}

func TestSendReceive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store)

	payload := bytes.Repeat([]byte("pickle"), 1000)
	data, err := s.Send(ctx, map[string]any{"report": NewBlob(payload), "name": "q3"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.NotContains(t, string(data), "pickle")
	assert.Contains(t, string(data), `"report<!B>"`)

	v, err := s.Receive(ctx, data)
	require.NoError(t, err)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "q3", m["name"])

	b, ok := m["report"].(*Blob)
	require.True(t, ok)
	assert.Equal(t, payload, b.Data)
	assert.Equal(t, len(payload), b.Size)
	assert.Equal(t, address(BLAKE3(), payload), b.ID)
}

func TestMarshalDoesNotStore(t *testing.T) {
	store := NewMemoryStore()
	s := newSerializer(t, store)

	_, err := s.Marshal(context.Background(), map[string]any{"b": NewBlob([]byte("x"))})
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestReceiveMissingBlob(t *testing.T) {
	ctx := context.Background()
	sender := newSerializer(t, NewMemoryStore())
	receiver := newSerializer(t, NewMemoryStore())

	data, err := sender.Send(ctx, map[string]any{"b": NewBlob([]byte("payload"))})
	require.NoError(t, err)

	_, err = receiver.Receive(ctx, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, pickle.ErrHook)
	assert.ErrorIs(t, err, ErrNotFound)

	var te *pickle.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, Tag, te.Tag)
	assert.Equal(t, "$.b", te.Path.String())
}

func TestReceiveTamperedBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store)

	blob := NewBlob([]byte("original"))
	data, err := s.Send(ctx, map[string]any{"b": blob})
	require.NoError(t, err)

	id := address(BLAKE3(), blob.Data)
	require.NoError(t, store.Put(ctx, id, []byte("tampered")))

	_, err = s.Receive(ctx, data)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestReceiveSizeMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store)

	blob := &Blob{ID: "report", Data: []byte("abc")}
	data, err := s.Send(ctx, map[string]any{"b": blob})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "report", []byte("abcdef")))

	_, err = s.Receive(ctx, data)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestCallerIDIsKept(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store)

	data, err := s.Send(ctx, map[string]any{"b": Blob{ID: "invoice-7", Data: []byte("pdf")}})
	require.NoError(t, err)

	got, err := store.Get(ctx, "invoice-7")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), got)

	v, err := s.Receive(ctx, data)
	require.NoError(t, err)
	b := v.(map[string]any)["b"].(*Blob)
	assert.Equal(t, "invoice-7", b.ID)
	assert.Equal(t, []byte("pdf"), b.Data)
}

func TestInlineThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store, WithThreshold(16))

	data, err := s.Send(ctx, []any{NewBlob([]byte("tiny")), NewBlob(bytes.Repeat([]byte{1}, 32))})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	v, err := s.Receive(ctx, data)
	require.NoError(t, err)

	m := v.(map[string]any)
	assert.Equal(t, []byte("tiny"), m["0"].(*Blob).Data)
	assert.Equal(t, bytes.Repeat([]byte{1}, 32), m["1"].(*Blob).Data)
}

func TestWithHasher(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSerializer(t, store, WithHasher(SHA256()))

	payload := []byte("hello")
	_, err := s.Send(ctx, map[string]any{"b": NewBlob(payload)})
	require.NoError(t, err)

	_, err = store.Get(ctx, "sha256-2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	assert.NoError(t, err)
}

func TestCheck(t *testing.T) {
	p := Plugin(NewMemoryStore())

	assert.True(t, p.Check("", NewBlob(nil)))
	assert.True(t, p.Check("", Blob{}))
	assert.False(t, p.Check("", (*Blob)(nil)))
	assert.False(t, p.Check("", []byte("raw")))
	assert.False(t, p.Check("", "blob"))
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    *Blob
		wantErr bool
	}{
		{"float size", map[string]any{"id": "a", "size": float64(3)}, &Blob{ID: "a", Size: 3}, false},
		{"int8 size", map[string]any{"id": "a", "size": int8(3)}, &Blob{ID: "a", Size: 3}, false},
		{"uint16 size", map[string]any{"id": "a", "size": uint16(300)}, &Blob{ID: "a", Size: 300}, false},
		{"inline", map[string]any{"id": "a", "size": 2, "data": "aGk="}, &Blob{ID: "a", Size: 2, Data: []byte("hi")}, false},
		{"inline bytes", map[string]any{"id": "a", "size": 2, "data": []byte("hi")}, &Blob{ID: "a", Size: 2, Data: []byte("hi")}, false},
		{"not an object", "a", nil, true},
		{"missing id", map[string]any{"size": 1}, nil, true},
		{"fractional size", map[string]any{"id": "a", "size": 1.5}, nil, true},
		{"negative size", map[string]any{"id": "a", "size": -1}, nil, true},
		{"bad base64", map[string]any{"id": "a", "size": 1, "data": "!!"}, nil, true},
		{"bad data type", map[string]any{"id": "a", "size": 1, "data": 7}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRef(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
