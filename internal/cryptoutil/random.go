package cryptoutil

import (
	"crypto/rand"
	"fmt"
)

// SaltSize is the length in bytes of a KDF salt.
const SaltSize = 16

// NonceSize is the length in bytes of an AES-256-GCM nonce.
const NonceSize = 12

// RandBytes returns n cryptographically random bytes drawn from the OS CSPRNG.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to read random bytes: %w", err)
	}
	return b, nil
}

// RandSalt returns a fresh 16-byte KDF salt.
func RandSalt() ([]byte, error) {
	return RandBytes(SaltSize)
}

// RandNonce returns a fresh 12-byte AEAD nonce.
func RandNonce() ([]byte, error) {
	return RandBytes(NonceSize)
}
