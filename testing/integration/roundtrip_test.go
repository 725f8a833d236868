package integration

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/pickle"
	"github.com/zoobzio/pickle/bson"
	"github.com/zoobzio/pickle/cbor"
	"github.com/zoobzio/pickle/json"
	"github.com/zoobzio/pickle/msgpack"
	"github.com/zoobzio/pickle/offload"
	pickletest "github.com/zoobzio/pickle/testing"
	"github.com/zoobzio/pickle/yaml"
)

func codecs() map[string]pickle.Codec {
	return map[string]pickle.Codec{
		"json":    json.New(),
		"jsonc":   json.New(json.WithComments()),
		"yaml":    yaml.New(),
		"msgpack": msgpack.New(),
		"bson":    bson.New(),
		"cbor":    cbor.New(),
	}
}

func TestRoundTrip_Fixture(t *testing.T) {
	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			s := pickle.NewSerializer(c, pickle.WithRegistry(pickle.NewRegistry()))
			ctx := context.Background()

			data, err := s.Marshal(ctx, pickletest.Fixture())
			require.NoError(t, err)

			v, err := s.Unmarshal(ctx, data)
			require.NoError(t, err)
			assert.NoError(t, pickletest.CheckFixture(v))
		})
	}
}

type Invoice struct {
	Number string   `json:"number"`
	Lines  []string `json:"lines"`
	Paid   bool     `json:"paid"`
}

func TestSendReceive_CustomTypes(t *testing.T) {
	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			store := pickletest.TestStore()
			reg := pickle.NewRegistry()
			require.NoError(t, reg.Register("N", pickle.StructPlugin[Invoice]()))
			require.NoError(t, offload.Register(reg, store, offload.WithThreshold(8)))

			s := pickle.NewSerializer(c, pickle.WithRegistry(reg), pickle.WithHookLimit(4))
			ctx := context.Background()

			scan := bytes.Repeat([]byte("%PDF-1.7 "), 512)
			invoice := &Invoice{Number: "INV-7", Lines: []string{"widget", "gadget"}, Paid: true}
			due := time.UnixMilli(1700000000000).UTC()

			data, err := s.Send(ctx, map[string]any{
				"invoice": invoice,
				"scan":    offload.NewBlob(scan),
				"stamp":   offload.NewBlob([]byte("ok")),
				"due":     due,
				"history": []any{invoice, invoice},
			})
			require.NoError(t, err)
			assert.Equal(t, 1, store.Len(), "only the large blob is stored")

			v, err := s.Receive(ctx, data)
			require.NoError(t, err)
			m := v.(map[string]any)

			got, ok := m["invoice"].(*Invoice)
			require.True(t, ok, "invoice is %T", m["invoice"])
			assert.Equal(t, invoice, got)

			history := m["history"].([]any)
			require.Len(t, history, 2)
			assert.Equal(t, invoice, history[1])

			assert.Equal(t, scan, m["scan"].(*offload.Blob).Data)
			assert.Equal(t, []byte("ok"), m["stamp"].(*offload.Blob).Data)
			assert.True(t, due.Equal(m["due"].(time.Time)))
		})
	}
}

func TestReceive_WithoutPlugins(t *testing.T) {
	reg := pickle.NewRegistry()
	require.NoError(t, offload.Register(reg, offload.NewMemoryStore()))
	sender := pickle.NewSerializer(json.New(), pickle.WithRegistry(reg))

	data, err := sender.Send(context.Background(), map[string]any{"b": offload.NewBlob([]byte("x"))})
	require.NoError(t, err)

	// An unknown tag passes through as the raw reference.
	receiver := pickle.NewSerializer(json.New(), pickle.WithRegistry(pickle.NewRegistry()))
	v, err := receiver.Receive(context.Background(), data)
	require.NoError(t, err)

	ref, ok := v.(map[string]any)["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), ref["size"])
	assert.Contains(t, ref["id"], "blake3-")
}
