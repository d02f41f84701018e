// Package uid generates the 48-bit numeric identifiers used for scenes and users
// and converts them to and from their fixed-width, filename-safe string form.
//
// 48 bits keep identifiers exact in a JSON number (2^53 safe range) and fit a
// sqlite INTEGER PRIMARY KEY.
package uid

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Max is the exclusive upper bound of a valid identifier.
const Max int64 = 1 << 48

// byteLen is the size of the big-endian representation.
const byteLen = 6

// EncodedLen is the length of an identifier's string form.
var EncodedLen = base64.RawURLEncoding.EncodedLen(byteLen)

// Make returns a uniformly random identifier in [0, 2^48).
func Make() int64 {
	var b [byteLen]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand only fails when the kernel entropy source is gone.
		panic(fmt.Sprintf("uid: reading random bytes: %v", err))
	}
	return decode(b)
}

// ToString encodes id as 8 base64url characters.
// It rejects negative identifiers and identifiers >= 2^48.
func ToString(id int64) (string, error) {
	if id < 0 || id >= Max {
		return "", fmt.Errorf("identifier out of range: %d", id)
	}
	var b [byteLen]byte
	for i := byteLen - 1; i >= 0; i-- {
		b[i] = byte(id)
		id >>= 8
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// FromString decodes a string produced by ToString.
// Any input that does not decode to exactly 6 bytes is rejected.
func FromString(s string) (int64, error) {
	if len(s) != EncodedLen {
		return 0, fmt.Errorf("invalid identifier %q: expected %d characters", s, EncodedLen)
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	if len(raw) != byteLen {
		return 0, fmt.Errorf("invalid identifier %q: decoded to %d bytes", s, len(raw))
	}
	var b [byteLen]byte
	copy(b[:], raw)
	return decode(b), nil
}

func decode(b [byteLen]byte) int64 {
	var id int64
	for _, c := range b {
		id = id<<8 | int64(c)
	}
	return id
}
