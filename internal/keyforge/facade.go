// Package keyforge is the back-end façade (spec.md §4.I): a single
// process-wide vault handle with Absent/Locked/Unlocked states, serialized
// behind one exclusive lock, exposing the command surface the shell (or any
// other caller) drives the vault through.
package keyforge

import (
	"context"
	"encoding/base32"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/i-wajidrashid/keyforge/internal/backup"
	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyerr"
	"github.com/i-wajidrashid/keyforge/internal/kfconfig"
	"github.com/i-wajidrashid/keyforge/internal/otp"
	"github.com/i-wajidrashid/keyforge/internal/otpauth"
	"github.com/i-wajidrashid/keyforge/internal/store"
	"github.com/i-wajidrashid/keyforge/internal/tokens"
)

var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// AddTokenInput carries the fields needed to add a token through the
// façade. SecretB32 is Base32-decoded and zeroized promptly after wrapping.
type AddTokenInput struct {
	Issuer    string
	Account   string
	SecretB32 string
	Algorithm otp.Algorithm
	Digits    int
	Kind      tokens.Kind
	Period    int
	Counter   uint64
	Icon      string
}

// Vault is the process-wide handle. The zero value is not usable; construct
// with Open.
type Vault struct {
	mu sync.Mutex

	dataDir   string
	vaultPath string
	saltsPath string
	params    cryptoutil.KDFParams

	store *store.Store
	repo  *tokens.Repository
	ksec  []byte // K_sec, zeroized on lock

	cache    []*tokens.Token
	cacheSet bool
}

// Open returns a handle bound to the given config's data directory, creating
// that directory if it is missing. The handle starts Locked or Absent
// depending on whether a vault file already exists; no vault or salts file
// is read here.
func Open(cfg *kfconfig.Config) (*Vault, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("keyforge: create data dir: %w", err)
	}
	return &Vault{
		dataDir:   cfg.DataDir,
		vaultPath: filepath.Join(cfg.DataDir, "vault.vault"),
		saltsPath: filepath.Join(cfg.DataDir, "vault.salts"),
		params:    cfg.KDFParams(),
	}, nil
}

// Exists reports whether a vault file is present on disk (Locked or
// Unlocked, as opposed to Absent).
func (v *Vault) Exists() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exists()
}

func (v *Vault) exists() bool {
	_, err := os.Stat(v.vaultPath)
	return err == nil
}

// IsLocked reports whether the handle currently holds no key material.
func (v *Vault) IsLocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.store == nil
}

// Create provisions a brand-new vault: generates two salts, derives K_db and
// K_sec, creates the encrypted store, and persists the salts. Fails if a
// vault file already exists.
func (v *Vault) Create(ctx context.Context, password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.exists() {
		return fmt.Errorf("keyforge: vault already exists at %s", v.vaultPath)
	}

	salts, err := generateSalts()
	if err != nil {
		return err
	}

	kdb, ksec, err := cryptoutil.DerivePair(password, salts.SQLCipherSalt, salts.SecretSalt, v.params)
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(kdb)

	s, err := store.OpenOrCreate(ctx, v.vaultPath, kdb)
	if err != nil {
		cryptoutil.Zero(ksec)
		return err
	}

	if err := saveSalts(v.saltsPath, salts); err != nil {
		s.Close()
		cryptoutil.Zero(ksec)
		return err
	}

	v.store = s
	v.repo = tokens.New(s, ksec)
	v.ksec = ksec
	v.invalidateCacheLocked()
	return nil
}

// Unlock loads the persisted salts, re-derives the keys, opens the store,
// and verifies decryption succeeded.
func (v *Vault) Unlock(ctx context.Context, password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.store != nil {
		return nil // already unlocked
	}
	if !v.exists() {
		return keyerr.ErrNoVaultFound
	}

	salts, err := loadSalts(v.saltsPath)
	if err != nil {
		return err
	}

	kdb, ksec, err := cryptoutil.DerivePair(password, salts.SQLCipherSalt, salts.SecretSalt, v.params)
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(kdb)

	s, err := store.OpenOrCreate(ctx, v.vaultPath, kdb)
	if err != nil {
		cryptoutil.Zero(ksec)
		return err
	}

	v.store = s
	v.repo = tokens.New(s, ksec)
	v.ksec = ksec
	v.invalidateCacheLocked()
	return nil
}

// Lock drops the vault handle, closing the store and zeroizing K_sec.
func (v *Vault) Lock() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lockLocked()
}

func (v *Vault) lockLocked() error {
	if v.store == nil {
		return nil
	}
	err := v.store.Close()
	cryptoutil.Zero(v.ksec)
	v.store = nil
	v.repo = nil
	v.ksec = nil
	v.invalidateCacheLocked()
	return err
}

func (v *Vault) invalidateCacheLocked() {
	v.cache = nil
	v.cacheSet = false
}

// requireUnlockedLocked returns the repository, or ErrVaultIsLocked. Caller
// must hold v.mu.
func (v *Vault) requireUnlockedLocked() (*tokens.Repository, error) {
	if v.repo == nil {
		return nil, keyerr.ErrVaultIsLocked
	}
	return v.repo, nil
}

// List returns all tokens, populating the cache on miss.
func (v *Vault) List(ctx context.Context) ([]*tokens.Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return nil, err
	}
	if v.cacheSet {
		return v.cache, nil
	}

	list, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	v.cache = list
	v.cacheSet = true
	return list, nil
}

// Add Base32-decodes input.SecretB32, zeroizes the decoded buffer after the
// repository wraps it, and invalidates the listing cache.
func (v *Vault) Add(ctx context.Context, input AddTokenInput) (*tokens.Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return nil, err
	}

	secret, err := base32Enc.DecodeString(strings.ToUpper(input.SecretB32))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrInvalidBase32, err)
	}

	tok, err := repo.Add(ctx, tokens.NewToken{
		Issuer: input.Issuer, Account: input.Account, Secret: secret,
		Algorithm: input.Algorithm, Digits: input.Digits, Kind: input.Kind,
		Period: input.Period, Counter: input.Counter, Icon: input.Icon,
	})
	if err != nil {
		return nil, err
	}
	v.invalidateCacheLocked()
	return tok, nil
}

// Delete removes a token and invalidates the cache. Idempotent.
func (v *Vault) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	v.invalidateCacheLocked()
	return nil
}

// Update changes issuer/account for id and invalidates the cache.
func (v *Vault) Update(ctx context.Context, id, issuer, account string) (*tokens.Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return nil, err
	}
	tok, err := repo.Update(ctx, id, issuer, account)
	if err != nil {
		return nil, err
	}
	v.invalidateCacheLocked()
	return tok, nil
}

// Reorder applies a dense sort_order permutation and invalidates the cache.
func (v *Vault) Reorder(ctx context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return err
	}
	if err := repo.Reorder(ctx, ids); err != nil {
		return err
	}
	v.invalidateCacheLocked()
	return nil
}

// IncrementCounter bumps a HOTP token's counter and invalidates the cache.
func (v *Vault) IncrementCounter(ctx context.Context, id string) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return 0, err
	}
	counter, err := repo.IncrementCounter(ctx, id)
	if err != nil {
		return 0, err
	}
	v.invalidateCacheLocked()
	return counter, nil
}

// TOTPFor reads token id's secret and computes a TOTP code for the current
// time using the token's own algorithm/digits/period.
func (v *Vault) TOTPFor(ctx context.Context, id string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return "", err
	}
	tok, err := repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	secret, err := repo.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}
	defer cryptoutil.Zero(secret)

	return otp.TOTP(secret, time.Now().Unix(), int64(tok.Period), tok.Digits, tok.Algorithm)
}

// TOTPRaw computes a TOTP code directly from a Base32 secret, bypassing the
// repository. Used for preview-before-save flows.
func TOTPRaw(secretB32 string, alg otp.Algorithm, digits, period int) (string, error) {
	secret, err := base32Enc.DecodeString(strings.ToUpper(secretB32))
	if err != nil {
		return "", fmt.Errorf("%w: %v", keyerr.ErrInvalidBase32, err)
	}
	defer cryptoutil.Zero(secret)
	return otp.TOTP(secret, time.Now().Unix(), int64(period), digits, alg)
}

// HOTPFor reads token id's secret and current counter, computes the code,
// and advances the counter. Callers wanting the code without advancing
// should read the token and call otp.HOTP directly.
func (v *Vault) HOTPFor(ctx context.Context, id string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return "", err
	}
	tok, err := repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	secret, err := repo.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}
	defer cryptoutil.Zero(secret)

	code, err := otp.HOTP(secret, tok.Counter, tok.Digits, tok.Algorithm)
	if err != nil {
		return "", err
	}
	if _, err := repo.IncrementCounter(ctx, id); err != nil {
		return "", err
	}
	v.invalidateCacheLocked()
	return code, nil
}

// ExportURIs emits every token as an otpauth:// string in listing order.
func (v *Vault) ExportURIs(ctx context.Context) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return nil, err
	}
	list, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	uris := make([]*otpauth.URI, 0, len(list))
	for _, tok := range list {
		secret, err := repo.GetSecret(ctx, tok.ID)
		if err != nil {
			return nil, err
		}
		kind := otpauth.TOTP
		if tok.Kind == tokens.KindHOTP {
			kind = otpauth.HOTP
		}
		uris = append(uris, &otpauth.URI{
			Kind: kind, Issuer: tok.Issuer, Account: tok.Account, Secret: secret,
			Algorithm: tok.Algorithm, Digits: tok.Digits, Period: tok.Period, Counter: tok.Counter,
		})
		cryptoutil.Zero(secret)
	}
	return backup.ExportURIs(uris), nil
}

// ExportEncrypted produces the self-describing encrypted backup blob.
func (v *Vault) ExportEncrypted(ctx context.Context, password []byte) ([]byte, error) {
	uris, err := v.ExportURIs(ctx)
	if err != nil {
		return nil, err
	}
	return backup.ExportEncrypted(password, uris)
}

// ImportURIs parses and adds each URI in order, stopping at the first parse
// or add failure. Returns the count of tokens successfully added.
func (v *Vault) ImportURIs(ctx context.Context, uris []string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo, err := v.requireUnlockedLocked()
	if err != nil {
		return 0, err
	}
	count, err := backup.ImportURIs(ctx, repo, uris)
	if count > 0 {
		v.invalidateCacheLocked()
	}
	return count, err
}

// ImportEncrypted decrypts blob with password and imports the resulting URI
// list via ImportURIs.
func (v *Vault) ImportEncrypted(ctx context.Context, blob, password []byte) (int, error) {
	uris, err := backup.ImportEncrypted(password, blob)
	if err != nil {
		return 0, err
	}
	return v.ImportURIs(ctx, uris)
}

// PlatformInfo reports static, non-sensitive facts about the running
// process and vault location. The desktop shell's own platform paths and UI
// concerns are out of scope; this is the contract the shell consumes.
type PlatformInfo struct {
	OS        string
	Arch      string
	DataDir   string
	VaultPath string
	Exists    bool
	Locked    bool
}

func (v *Vault) PlatformInfo() PlatformInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return PlatformInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		DataDir:   v.dataDir,
		VaultPath: v.vaultPath,
		Exists:    v.exists(),
		Locked:    v.store == nil,
	}
}
