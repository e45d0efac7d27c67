package hmacprng

import (
	"errors"
	"math"
	"unsafe"
)

// Limits taken from SP 800-90A, narrowed where the 32-bit countdown state
// requires it.
const (
	// MinSeedLen is the minimum seed length accepted by Reseed.
	// MinSeedLen*8 must be at least the expected security level.
	MinSeedLen = 32
	// MaxSeedLen is the maximum seed length accepted by Reseed.
	MaxSeedLen = math.MaxUint32
	// MaxPersonalizationLen is the maximum personalization string length.
	MaxPersonalizationLen = math.MaxUint32
	// MaxAdditionalLen is the maximum additional-input length.
	MaxAdditionalLen = math.MaxUint32
	// MaxGenerates is the number of Generate calls permitted between
	// reseeds. SP 800-90A allows up to 2^48; the countdown here is a
	// uint32.
	MaxGenerates = math.MaxUint32
	// MaxOutLen is the maximum number of bytes per Generate call.
	MaxOutLen = 1 << 19
)

// ErrReseedRequired is returned by Generate when the generate countdown has
// reached zero. The generator state is left intact so the caller can Reseed
// and retry.
var ErrReseedRequired = errors.New("reseed required")

// HMACPRNG is a deterministic random bit generator built on HMAC-SHA256,
// following NIST SP 800-90A Rev. 1 section 10.1.2. The caller supplies all
// seed material: Instantiate alone never enables output, a Reseed with at
// least MinSeedLen bytes of entropy must follow before Generate succeeds.
//
// A value is exclusively owned by its caller; distinct values are fully
// independent. Call Clear to destroy the secret state when done.
type HMACPRNG struct {
	h         HMAC
	key       [DigestSize]byte
	v         [DigestSize]byte
	countdown uint32
}

// update mixes data and additionalData into key and v per the
// HMAC_DRBG_Update function. With no data the single first pass still runs,
// rotating key and v; the second pass runs only when data is present.
func (p *HMACPRNG) update(data, additionalData []byte) {
	separator0 := [1]byte{0x00}
	separator1 := [1]byte{0x01}

	// key = HMAC(key, v || 0x00 || data || additionalData)
	p.h.SetKey(p.key[:])
	p.h.Init()
	p.h.Update(p.v[:])
	p.h.Update(separator0[:])
	if len(data) != 0 {
		p.h.Update(data)
	}
	if len(additionalData) != 0 {
		p.h.Update(additionalData)
	}
	p.h.Final(p.key[:])

	// v = HMAC(key, v) under the new key
	p.h.SetKey(p.key[:])
	p.h.Init()
	p.h.Update(p.v[:])
	p.h.Final(p.v[:])

	if len(data) == 0 {
		return
	}

	// key = HMAC(key, v || 0x01 || data || additionalData)
	p.h.SetKey(p.key[:])
	p.h.Init()
	p.h.Update(p.v[:])
	p.h.Update(separator1[:])
	p.h.Update(data)
	if len(additionalData) != 0 {
		p.h.Update(additionalData)
	}
	p.h.Final(p.key[:])

	// v = HMAC(key, v) under the new key
	p.h.SetKey(p.key[:])
	p.h.Init()
	p.h.Update(p.v[:])
	p.h.Final(p.v[:])
}

// Instantiate puts the generator into its initial state and mixes in the
// personalization string. personalization may be empty but must be non-nil.
// The countdown is left at zero: Generate fails with ErrReseedRequired until
// the caller provides real entropy through Reseed.
func (p *HMACPRNG) Instantiate(personalization []byte) error {
	if p == nil || personalization == nil ||
		uint64(len(personalization)) > MaxPersonalizationLen {
		return ErrInvalidParam
	}

	// put the generator into a known state
	for i := range p.key {
		p.key[i] = 0x00
	}
	for i := range p.v {
		p.v[i] = 0x01
	}

	p.update(personalization, nil)

	// force a reseed before Generate can succeed
	p.countdown = 0

	return nil
}

// Reseed mixes seed and optional additionalInput into the generator state
// and re-arms the generate countdown. seed must be at least MinSeedLen
// bytes. additionalInput may be nil; when non-nil it must not be empty.
func (p *HMACPRNG) Reseed(seed, additionalInput []byte) error {
	if p == nil || seed == nil ||
		len(seed) < MinSeedLen || uint64(len(seed)) > MaxSeedLen {
		return ErrInvalidParam
	}

	if additionalInput != nil {
		// reject additional input with inappropriate length
		if len(additionalInput) == 0 ||
			uint64(len(additionalInput)) > MaxAdditionalLen {
			return ErrInvalidParam
		}
		p.update(seed, additionalInput)
	} else {
		p.update(seed, nil)
	}

	p.countdown = MaxGenerates

	return nil
}

// Generate fills out with pseudorandom bytes. len(out) must be in
// [1, MaxOutLen]. Returns ErrReseedRequired, leaving the state intact, once
// the countdown is exhausted.
func (p *HMACPRNG) Generate(out []byte) error {
	if out == nil || p == nil || len(out) == 0 || len(out) > MaxOutLen {
		return ErrInvalidParam
	}
	if p.countdown == 0 {
		return ErrReseedRequired
	}

	p.countdown--

	for generated := 0; generated < len(out); {
		// operate HMAC in OFB mode to produce output blocks
		p.h.SetKey(p.key[:])
		p.h.Init()
		p.h.Update(p.v[:])
		p.h.Final(p.v[:])

		generated += copy(out[generated:], p.v[:])
	}

	// block future state compromises from revealing past output
	p.update(nil, nil)

	return nil
}

// Read fills b with generated bytes, satisfying io.Reader. Requests larger
// than MaxOutLen are split across Generate calls, each consuming one slot of
// the countdown. On failure the bytes generated so far are wiped and n is
// zero; a truncated output stream is never handed back.
func (p *HMACPRNG) Read(b []byte) (n int, err error) {
	for n < len(b) {
		chunk := len(b) - n
		if chunk > MaxOutLen {
			chunk = MaxOutLen
		}
		if err = p.Generate(b[n : n+chunk]); err != nil {
			break
		}
		n += chunk
	}

	memczero(b[:n], boolToInt(err != nil))
	if err != nil {
		n = 0
	}

	return n, err
}

// Clear destroys the generator's secret state. The generator must be
// instantiated and reseeded again before further use.
func (p *HMACPRNG) Clear() {
	if p == nil {
		return
	}
	p.h.Clear()
	memclear(unsafe.Pointer(&p.key[0]), uintptr(len(p.key)))
	memclear(unsafe.Pointer(&p.v[0]), uintptr(len(p.v)))
	p.countdown = 0
}
