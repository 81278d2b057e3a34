package cryptoutil

import (
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

// KeyLen is the output length of a derived key, in bytes.
const KeyLen = 32

// KDFParams holds Argon2id tuning parameters. Parameters are not embedded in
// any ciphertext the KDF protects, so callers persist them alongside the
// salt(s) they were used with.
type KDFParams struct {
	MemoryKiB   uint32
	TimeCost    uint32
	Parallelism uint8
}

// ProductionParams are the recommended parameters for protecting the vault
// database key and for the encrypted backup blob format (§4.B/§4.H).
var ProductionParams = KDFParams{
	MemoryKiB:   65536,
	TimeCost:    3,
	Parallelism: 4,
}

// FastTestParams trade security for speed in unit tests and benchmarks.
var FastTestParams = KDFParams{
	MemoryKiB:   8 * 1024,
	TimeCost:    1,
	Parallelism: 2,
}

func (p KDFParams) validate() error {
	if p.MemoryKiB == 0 || p.TimeCost == 0 || p.Parallelism == 0 {
		return keyerr.ErrKDFBadParams
	}
	return nil
}

// Derive turns a password and a 16-byte salt into a 32-byte key using
// Argon2id (v1.3).
func Derive(password, salt []byte, params KDFParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", keyerr.ErrKDFBadParams, SaltSize, len(salt))
	}

	key := argon2.IDKey(password, salt, params.TimeCost, params.MemoryKiB, params.Parallelism, KeyLen)
	if len(key) != KeyLen {
		return nil, keyerr.ErrKDFDerive
	}
	return key, nil
}

// DerivePair derives two independent 256-bit keys from one password using
// distinct salts: K_db protects the whole vault database, K_sec protects
// individual token secrets. Callers must ensure saltDB != saltSec.
func DerivePair(password, saltDB, saltSec []byte, params KDFParams) (kDB, kSec []byte, err error) {
	kDB, err = Derive(password, saltDB, params)
	if err != nil {
		return nil, nil, fmt.Errorf("derive K_db: %w", err)
	}
	kSec, err = Derive(password, saltSec, params)
	if err != nil {
		Zero(kDB)
		return nil, nil, fmt.Errorf("derive K_sec: %w", err)
	}
	return kDB, kSec, nil
}
