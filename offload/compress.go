package offload

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor shrinks blob bytes at rest.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("offload: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("offload: zstd decoder initialization failed: " + err.Error())
	}
}

type zstdCompressor struct{}

// Zstd returns a Zstandard compressor at the default level.
func Zstd() Compressor {
	return zstdCompressor{}
}

func (zstdCompressor) Name() string { return "zstd" }

func (zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

func (zstdCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// lz4Compressor uses LZ4 block mode. Blocks do not record their
// uncompressed size, so it is stored as a 4-byte big-endian prefix.
type lz4Compressor struct{}

// LZ4 returns an LZ4 block compressor.
func LZ4() Compressor {
	return lz4Compressor{}
}

func (lz4Compressor) Name() string { return "lz4" }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("lz4 compress: %d bytes exceeds block limit", len(data))
	}

	out := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(out, uint32(len(data))) // #nosec G115 -- bounds checked above

	written, err := lz4.CompressBlock(data, out[4:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// Incompressible data is stored as is; a body the same length as the
	// prefix says is raw.
	if written == 0 || written >= len(data) {
		return append(out[:4], data...), nil
	}
	return out[:4+written], nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lz4 decompress: %d bytes is shorter than the size prefix", len(data))
	}

	size := int(binary.BigEndian.Uint32(data))
	body := data[4:]
	if len(body) == size {
		return append([]byte(nil), body...), nil
	}

	out := make([]byte, size)
	read, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return out, nil
}
