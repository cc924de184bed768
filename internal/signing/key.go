package signing

import (
	"github.com/awnumar/memguard"

	"main/pkg/exception"
)

const (
	// KeySize is the key length in bytes.
	KeySize = 32
	// SignatureSize is the MAC output length in bytes.
	SignatureSize = 32
)

// Key is fixed-length key material. Owned by whoever holds it; call Zero
// when done. Key bytes must never reach logs or error strings.
type Key [KeySize]byte

// Signature is a fixed-length MAC over (key, payload). No lifecycle of its
// own; produced and consumed per call.
type Signature [SignatureSize]byte

// KeyFromBytes copies b into a Key. The caller keeps ownership of b and
// should wipe it after use.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, exception.ErrInvalidLength
	}
	copy(k[:], b)
	return k, nil
}

// Zero wipes the key material in place.
func (k *Key) Zero() {
	if k == nil {
		return
	}
	memguard.WipeBytes(k[:])
}

// SignatureFromBytes copies b into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureSize {
		return s, exception.ErrInvalidLength
	}
	copy(s[:], b)
	return s, nil
}
