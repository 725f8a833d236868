package offload

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Hasher derives content addresses for blob bytes.
type Hasher interface {
	// Name identifies the algorithm and prefixes every ID it produces.
	Name() string

	// Sum returns the hex-encoded digest of data.
	Sum(data []byte) string
}

// blake3Hasher implements BLAKE3-256 content addressing.
type blake3Hasher struct{}

// BLAKE3 returns a BLAKE3-256 hasher. It is the default.
func BLAKE3() Hasher {
	return blake3Hasher{}
}

func (blake3Hasher) Name() string { return "blake3" }

func (blake3Hasher) Sum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sha256Hasher implements SHA-256 content addressing.
type sha256Hasher struct{}

// SHA256 returns a SHA-256 hasher.
func SHA256() Hasher {
	return sha256Hasher{}
}

func (sha256Hasher) Name() string { return "sha256" }

func (sha256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// address returns the content address of data: "<name>-<hex digest>".
func address(h Hasher, data []byte) string {
	return h.Name() + "-" + h.Sum(data)
}

// verify reports whether id is the content address of data under h.
// IDs minted by another hasher, or set by the caller, are not checked.
func verify(h Hasher, id string, data []byte) bool {
	digest, ok := strings.CutPrefix(id, h.Name()+"-")
	if !ok {
		return true
	}
	return digest == h.Sum(data)
}
