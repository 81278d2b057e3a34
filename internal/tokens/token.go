// Package tokens implements the token repository (spec.md §4.G): CRUD,
// sort-order discipline, HOTP counter progression, and per-secret envelope
// encryption under K_sec, layered on top of the whole-database cipher in
// package store.
package tokens

import (
	"github.com/i-wajidrashid/keyforge/internal/otp"
)

// Kind distinguishes a time-based from a counter-based token.
type Kind string

const (
	KindTOTP Kind = "totp"
	KindHOTP Kind = "hotp"
)

// Token is a persisted OTP credential. The wrapped seed is not a field of
// Token and never leaves the repository; callers use GetSecret for the
// unwrapped seed.
type Token struct {
	ID        string
	Issuer    string
	Account   string
	Algorithm otp.Algorithm
	Digits    int
	Kind      Kind
	Period    int
	Counter   uint64
	Icon      string
	SortOrder int
	CreatedAt string
	UpdatedAt string

	// Sync-reserved fields: nullable placeholders the repository never sets.
	LastModified *string
	DeviceID     *string
	SyncVersion  *int
}

// NewToken carries the fields needed to add a token. Secret holds the raw
// seed; the repository wraps it under K_sec, and Add zeroizes the bytes
// Secret points to before it returns.
type NewToken struct {
	Issuer    string
	Account   string
	Secret    []byte
	Algorithm otp.Algorithm
	Digits    int
	Kind      Kind
	Period    int
	Counter   uint64
	Icon      string
}
