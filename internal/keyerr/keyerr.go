// Package keyerr defines the structured error taxonomy shared by keyforge's
// crypto, vault, and façade layers. Each variable is one error kind; callers
// wrap it with fmt.Errorf("%w: ...") and compare with errors.Is.
package keyerr

import "errors"

// Crypto errors.
var (
	ErrCipherInit          = errors.New("crypto: cipher initialization failed")
	ErrEncryption          = errors.New("crypto: encryption failed")
	ErrCiphertextTooShort  = errors.New("crypto: ciphertext too short")
	ErrAuthenticationFail  = errors.New("crypto: authentication failed")
	ErrKDFBadParams        = errors.New("crypto: invalid KDF parameters")
	ErrKDFDerive           = errors.New("crypto: key derivation failed")
)

// Vault (store/repository) errors.
var (
	ErrDBOpen                 = errors.New("vault: failed to open database")
	ErrSetKey                 = errors.New("vault: failed to set database key")
	ErrWrongPasswordOrCorrupt = errors.New("vault: wrong password or corrupted store")
	ErrMigration              = errors.New("vault: migration failed")
	ErrSchemaVersion          = errors.New("vault: unreadable schema version")
	ErrEncryptSecret          = errors.New("vault: failed to encrypt secret")
	ErrDecryptSecret          = errors.New("vault: failed to decrypt secret")
	ErrQuery                  = errors.New("vault: query failed")
	ErrTokenNotFound          = errors.New("vault: token not found")
	ErrInvalidExport          = errors.New("vault: invalid export payload")
	ErrSerialization          = errors.New("vault: serialization failed")
	ErrInvalidURI             = errors.New("vault: invalid otpauth URI")
	ErrMissingURIParam        = errors.New("vault: missing required URI parameter")
	ErrInvalidBase32          = errors.New("vault: invalid base32 secret")
	ErrUnknownTokenKind       = errors.New("vault: unknown token kind")
)

// Façade errors.
var (
	ErrVaultIsLocked = errors.New("vault is locked")
	ErrNoVaultFound  = errors.New("no vault found")
)
