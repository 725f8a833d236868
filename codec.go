package pickle

// Codec carries a tagged tree as bytes.
//
// Unmarshal must leave v holding plain data: string-keyed maps, slices and
// scalars. Implementations normalize carrier-specific container types.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}
