// Package backup implements whole-vault export/import (spec.md §4.H): plain
// lists of otpauth:// URIs, and a self-describing encrypted blob keyed by a
// password-derived key independent of the vault's own K_db/K_sec.
package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyerr"
	"github.com/i-wajidrashid/keyforge/internal/otpauth"
	"github.com/i-wajidrashid/keyforge/internal/tokens"
)

// Adder is the subset of *tokens.Repository needed to import parsed URIs.
type Adder interface {
	Add(ctx context.Context, nt tokens.NewToken) (*tokens.Token, error)
}

// ExportURIs renders tokens as otpauth:// strings in the given order.
func ExportURIs(uris []*otpauth.URI) []string {
	out := make([]string, len(uris))
	for i, u := range uris {
		out[i] = otpauth.Emit(u)
	}
	return out
}

// ExportEncrypted builds the encrypted backup blob: a fresh 16-byte salt
// followed by the AEAD envelope over the JSON-encoded URI list, keyed by
// Argon2id(password, salt, ProductionParams). The derived key is zeroized
// before return.
func ExportEncrypted(password []byte, uris []string) ([]byte, error) {
	payload, err := json.Marshal(uris)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrSerialization, err)
	}

	salt, err := cryptoutil.RandSalt()
	if err != nil {
		return nil, err
	}

	key, err := cryptoutil.Derive(password, salt, cryptoutil.ProductionParams)
	if err != nil {
		return nil, err
	}
	defer cryptoutil.Zero(key)

	envelope, err := cryptoutil.Encrypt(key, payload)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(salt)+len(envelope))
	blob = append(blob, salt...)
	blob = append(blob, envelope...)
	return blob, nil
}

// ImportURIs parses each URI in order and adds it via repo. A parse failure
// aborts the batch and returns the count of tokens successfully added so
// far along with the error; atomicity across the batch is not required.
func ImportURIs(ctx context.Context, repo Adder, uris []string) (count int, err error) {
	for i, raw := range uris {
		u, err := otpauth.Parse(raw)
		if err != nil {
			return count, fmt.Errorf("uri %d: %w", i, err)
		}

		kind := tokens.KindTOTP
		if u.Kind == otpauth.HOTP {
			kind = tokens.KindHOTP
		}

		if _, err := repo.Add(ctx, tokens.NewToken{
			Issuer: u.Issuer, Account: u.Account, Secret: u.Secret,
			Algorithm: u.Algorithm, Digits: u.Digits, Kind: kind,
			Period: u.Period, Counter: u.Counter,
		}); err != nil {
			return count, fmt.Errorf("uri %d: %w", i, err)
		}
		count++
	}
	return count, nil
}

// ImportEncrypted splits a blob produced by ExportEncrypted, re-derives the
// key from password and the embedded salt, and decrypts and deserializes the
// URI list. A wrong password surfaces as an undifferentiated authentication
// failure, per the AEAD codec's error taxonomy. The derived key is zeroized
// before return.
func ImportEncrypted(password, blob []byte) ([]string, error) {
	if len(blob) < cryptoutil.SaltSize {
		return nil, fmt.Errorf("%w: blob shorter than salt", keyerr.ErrInvalidExport)
	}
	salt, envelope := blob[:cryptoutil.SaltSize], blob[cryptoutil.SaltSize:]

	key, err := cryptoutil.Derive(password, salt, cryptoutil.ProductionParams)
	if err != nil {
		return nil, err
	}
	defer cryptoutil.Zero(key)

	payload, err := cryptoutil.Decrypt(key, envelope)
	if err != nil {
		return nil, err
	}

	var uris []string
	if err := json.Unmarshal(payload, &uris); err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrSerialization, err)
	}
	return uris, nil
}
