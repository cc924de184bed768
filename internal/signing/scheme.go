package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"github.com/yanun0323/errors"
	"golang.org/x/crypto/chacha20"
)

// scheme is the narrow primitive boundary: derive a key, authenticate a
// payload, verify a tag. Swapping the MAC placeholder for a post-quantum
// signature later replaces this file without touching the public contract.
type scheme interface {
	DeriveKey(seed uint64) (Key, error)
	Authenticate(key Key, payload []byte) Signature
	Verify(key Key, payload []byte, sig Signature) bool
}

// hmacScheme is the deterministic HMAC-SHA256 placeholder. Keys come from a
// ChaCha20 keystream seeded with the caller seed, so the same seed yields
// the same key on every platform.
type hmacScheme struct{}

var _ scheme = hmacScheme{}

func (hmacScheme) DeriveKey(seed uint64) (Key, error) {
	var seedKey [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(seedKey[:8], seed)

	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seedKey[:], nonce[:])
	if err != nil {
		return Key{}, errors.Wrap(err, "init key derivation stream")
	}

	var key Key
	cipher.XORKeyStream(key[:], key[:])
	return key, nil
}

func (hmacScheme) Authenticate(key Key, payload []byte) Signature {
	mac := hmac.New(sha256.New, key[:])
	mac.Write(payload)

	var sig Signature
	mac.Sum(sig[:0])
	return sig
}

func (s hmacScheme) Verify(key Key, payload []byte, sig Signature) bool {
	expected := s.Authenticate(key, payload)
	// hmac.Equal compares in constant time regardless of mismatch position.
	return hmac.Equal(expected[:], sig[:])
}
