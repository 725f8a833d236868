// Package json provides a JSON codec implementation.
package json

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"github.com/zoobzio/pickle"
)

// jsonCodec implements pickle.Codec for JSON.
type jsonCodec struct {
	comments bool
}

// Option configures the JSON codec.
type Option func(*jsonCodec)

// WithComments accepts JSONC input: // and /* */ comments and trailing
// commas are stripped before parsing. Output is always plain JSON.
func WithComments() Option {
	return func(c *jsonCodec) {
		c.comments = true
	}
}

// New returns a JSON codec.
func New(opts ...Option) pickle.Codec {
	c := &jsonCodec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON. HTML characters are not escaped, so tagged
// keys stay readable.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	if c.comments {
		data = jsonc.ToJSON(data)
	}
	return json.Unmarshal(data, v)
}
