package hmacprng

import (
	"hash"

	"github.com/minio/sha256-simd"
)

const (
	// BlockSize is the SHA-256 block size in bytes.
	BlockSize = 64
	// DigestSize is the SHA-256 digest size in bytes.
	DigestSize = 32
)

// SHA256 represents a SHA-256 hash context
type SHA256 struct {
	hasher hash.Hash
}

// Initialize resets the context to the SHA-256 initial state
func (h *SHA256) Initialize() {
	if h.hasher == nil {
		h.hasher = sha256.New()
		return
	}
	h.hasher.Reset()
}

// Write absorbs data into the hash
func (h *SHA256) Write(data []byte) {
	if h.hasher == nil {
		h.Initialize()
	}
	h.hasher.Write(data)
}

// Finalize completes the hash, writes the 32-byte digest to out32 and resets
// the context
func (h *SHA256) Finalize(out32 []byte) {
	if len(out32) != DigestSize {
		panic("output buffer must be 32 bytes")
	}
	if h.hasher == nil {
		h.Initialize()
	}
	sum := h.hasher.Sum(nil)
	copy(out32, sum)
	h.hasher.Reset()
}

// Clear clears the hash context to prevent leaking sensitive information
func (h *SHA256) Clear() {
	if h.hasher != nil {
		h.hasher.Reset()
	}
}
