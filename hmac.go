package hmacprng

import (
	"errors"
	"unsafe"
)

// ErrInvalidParam reports an argument validation failure. The operation that
// returns it has made no change to caller-visible state.
var ErrInvalidParam = errors.New("invalid parameter")

const scheduleSize = 2 * BlockSize

// HMAC represents an HMAC-SHA256 context. The key schedule holds the
// inner-padded key in its first 64 bytes and the outer-padded key in its
// second 64 bytes; both halves always correspond to the same logical key.
type HMAC struct {
	key  [scheduleSize]byte
	hash SHA256
}

// rekey populates the key schedule from newKey, padding to the block size
func (h *HMAC) rekey(newKey []byte) {
	const innerPad = byte(0x36)
	const outerPad = byte(0x5c)

	i := 0
	for ; i < len(newKey); i++ {
		h.key[i] = innerPad ^ newKey[i]
		h.key[i+BlockSize] = outerPad ^ newKey[i]
	}
	for ; i < BlockSize; i++ {
		h.key[i] = innerPad
		h.key[i+BlockSize] = outerPad
	}
}

// SetKey populates the key schedule from key. Keys longer than the block size
// are hashed down to the digest size first. Both branches perform one hash
// pass so the timing of SetKey does not reveal which was taken.
func (h *HMAC) SetKey(key []byte) error {
	if h == nil || key == nil || len(key) == 0 {
		return ErrInvalidParam
	}

	if len(key) <= BlockSize {
		// Dummy calls matching the hash work of the long-key branch.
		// Without them an observer could learn from the time consumed
		// here whether the key exceeds the block size.
		var dummyKey [BlockSize]byte
		var dummyState SHA256
		var dummyDigest [DigestSize]byte
		dummyState.Initialize()
		dummyState.Write(dummyKey[:len(key)])
		dummyState.Finalize(dummyDigest[:])

		h.rekey(key)
	} else {
		h.hash.Initialize()
		h.hash.Write(key)
		h.hash.Finalize(h.key[DigestSize : 2*DigestSize])
		h.rekey(h.key[DigestSize : 2*DigestSize])
	}

	return nil
}

// Init begins a new MAC computation over the configured key
func (h *HMAC) Init() error {
	if h == nil {
		return ErrInvalidParam
	}

	h.hash.Initialize()
	h.hash.Write(h.key[:BlockSize])

	return nil
}

// Update absorbs message bytes. A zero-length slice is permitted.
func (h *HMAC) Update(data []byte) error {
	if h == nil {
		return ErrInvalidParam
	}

	h.hash.Write(data)

	return nil
}

// Final writes the 32-byte tag to tag and destroys the context. SetKey must
// be called again before the context can produce another tag.
func (h *HMAC) Final(tag []byte) error {
	if tag == nil || len(tag) != DigestSize || h == nil {
		return ErrInvalidParam
	}

	h.hash.Finalize(tag)

	h.hash.Initialize()
	h.hash.Write(h.key[BlockSize:])
	h.hash.Write(tag)
	h.hash.Finalize(tag)

	// destroy the current state
	memclear(unsafe.Pointer(&h.key[0]), uintptr(len(h.key)))
	h.hash.Clear()

	return nil
}

// Clear destroys the key schedule and hash state without producing a tag
func (h *HMAC) Clear() {
	if h == nil {
		return
	}
	memclear(unsafe.Pointer(&h.key[0]), uintptr(len(h.key)))
	h.hash.Clear()
}

// Sum computes the HMAC-SHA256 tag of message under key in one call
func Sum(key, message []byte) (tag [DigestSize]byte, err error) {
	var h HMAC
	if err = h.SetKey(key); err != nil {
		return
	}
	if err = h.Init(); err != nil {
		return
	}
	if err = h.Update(message); err != nil {
		return
	}
	err = h.Final(tag[:])
	return
}
