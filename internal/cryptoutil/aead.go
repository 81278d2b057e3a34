package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

// minEnvelopeLen is nonce(12) + tag(16); an envelope shorter than this
// cannot possibly be a valid ciphertext.
const minEnvelopeLen = NonceSize + 16

// Encrypt seals plaintext under key using AES-256-GCM with empty associated
// data. The returned envelope is bit-exact: nonce(12) ‖ ciphertext(N) ‖ tag(16).
func Encrypt(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := RandNonce()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrEncryption, err)
	}

	// Seal appends ciphertext+tag after the nonce prefix we pass as dst.
	envelope := gcm.Seal(nonce, nonce, plaintext, nil)
	return envelope, nil
}

// Decrypt opens an envelope produced by Encrypt. Authentication failure is
// indistinguishable from a wrong key, by design (§7).
func Decrypt(key, envelope []byte) ([]byte, error) {
	if len(envelope) < minEnvelopeLen {
		return nil, keyerr.ErrCiphertextTooShort
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := envelope[:NonceSize]
	ciphertext := envelope[NonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, keyerr.ErrAuthenticationFail
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", keyerr.ErrCipherInit, KeyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrCipherInit, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrCipherInit, err)
	}
	if gcm.NonceSize() != NonceSize {
		return nil, fmt.Errorf("%w: unexpected nonce size %d", keyerr.ErrCipherInit, gcm.NonceSize())
	}
	return gcm, nil
}
