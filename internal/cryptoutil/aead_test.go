package cryptoutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

func mustKey(t *testing.T) []byte {
	t.Helper()
	k, err := RandBytes(KeyLen)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	return k
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	envelope, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(envelope) != NonceSize+len(plaintext)+16 {
		t.Fatalf("envelope length = %d, want %d", len(envelope), NonceSize+len(plaintext)+16)
	}

	got, err := Decrypt(key, envelope)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	k1, k2 := mustKey(t), mustKey(t)
	envelope, err := Encrypt(k1, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(k2, envelope); !errors.Is(err, keyerr.ErrAuthenticationFail) {
		t.Fatalf("Decrypt with wrong key: got %v, want ErrAuthenticationFail", err)
	}
}

func TestDecryptBitFlipFails(t *testing.T) {
	key := mustKey(t)
	envelope, err := Encrypt(key, []byte("secret payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	flipped := append([]byte(nil), envelope...)
	flipped[len(flipped)-1] ^= 0x01

	if _, err := Decrypt(key, flipped); !errors.Is(err, keyerr.ErrAuthenticationFail) {
		t.Fatalf("Decrypt with bit flip: got %v, want ErrAuthenticationFail", err)
	}
}

func TestDecryptTooShort(t *testing.T) {
	key := mustKey(t)
	if _, err := Decrypt(key, make([]byte, 10)); !errors.Is(err, keyerr.ErrCiphertextTooShort) {
		t.Fatalf("Decrypt short input: got %v, want ErrCiphertextTooShort", err)
	}
}

func TestEncryptNoncesDiffer(t *testing.T) {
	key := mustKey(t)
	e1, err := Encrypt(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	e2, err := Encrypt(key, []byte("same plaintext"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(e1[:NonceSize], e2[:NonceSize]) {
		t.Fatal("two encryptions produced the same nonce")
	}
}
