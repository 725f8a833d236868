// Package yaml provides a YAML codec implementation.
package yaml

import (
	"github.com/zoobzio/pickle"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements pickle.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() pickle.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal decodes YAML data into v. Decoding into *any yields plain
// containers.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return err
	}
	if p, ok := v.(*any); ok {
		*p = pickle.Plain(*p)
	}
	return nil
}
