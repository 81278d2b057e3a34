// Package otp implements HOTP (RFC 4226) and TOTP (RFC 6238) code
// generation on the standard library's HMAC and hash packages, plus
// cryptoutil for zeroizing the intermediate HMAC buffer.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
)

// Algorithm identifies the HMAC hash function underlying an OTP.
type Algorithm string

const (
	SHA1   Algorithm = "SHA1"
	SHA256 Algorithm = "SHA256"
	SHA512 Algorithm = "SHA512"
)

// DefaultPeriod is the TOTP time step in seconds (RFC 6238 default).
const DefaultPeriod = 30

// DefaultDigits is the number of digits in a generated code.
const DefaultDigits = 6

func (a Algorithm) newHash() (func() hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New, nil
	case SHA256:
		return sha256.New, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("otp: unsupported algorithm %q", a)
	}
}

var digitModulus = map[int]uint32{
	6: 1_000_000,
	8: 100_000_000,
}

// HOTP computes the HMAC-based OTP for counter value c per RFC 4226.
// digits must be 6 or 8; any other value is a programmer error and panics.
func HOTP(key []byte, counter uint64, digits int, alg Algorithm) (string, error) {
	mod, ok := digitModulus[digits]
	if !ok {
		panic(fmt.Sprintf("otp: digits must be 6 or 8, got %d", digits))
	}

	newHash, err := alg.newHash()
	if err != nil {
		return "", err
	}

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(newHash, key)
	mac.Write(counterBytes[:])
	sum := mac.Sum(nil)
	defer cryptoutil.Zero(sum)

	offset := sum[len(sum)-1] & 0x0F
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7FFFFFFF
	code := truncated % mod

	return fmt.Sprintf("%0*d", digits, code), nil
}

// TOTP computes the time-based OTP for unix time t per RFC 6238, delegating
// to HOTP with counter = floor(t / step). step must be positive.
func TOTP(key []byte, t int64, step int64, digits int, alg Algorithm) (string, error) {
	if step <= 0 {
		return "", fmt.Errorf("otp: step must be positive, got %d", step)
	}
	counter := uint64(t) / uint64(step)
	return HOTP(key, counter, digits, alg)
}

// TimeRemaining returns the number of seconds left in the current TOTP
// step: step - (t mod step). At an exact boundary it returns step (not 0),
// so a UI shows a full interval immediately after rollover.
func TimeRemaining(t int64, step int64) int64 {
	return step - (t % step)
}
