package cryptoutil

import "crypto/subtle"

// Zero overwrites b with zeroes in place. Any buffer holding a derived key,
// a master password, a decrypted seed, or a hex-encoded key must be
// zeroized before release.
func Zero(b []byte) {
	subtle.XORBytes(b, b, b)
}
