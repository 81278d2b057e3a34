// Package store implements the encrypted vault database bring-up described
// in spec.md §4.F: open-or-create a single on-disk encrypted relational
// store keyed by K_db, prove decryption, and run schema migrations.
//
// No driver in the retrieved example pack speaks SQLCipher's page-cipher
// pragma, so the "whole-file cipher" is implemented as envelope encryption
// (§4.C AEAD, keyed by K_db) of an ordinary modernc.org/sqlite file: the
// plaintext file lives in a private working directory for the session and
// is resealed to the real vault path on every mutation and on Close. See
// SPEC_FULL.md and DESIGN.md for the grounding and the Open Question this
// resolves.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

const pragma = `
PRAGMA foreign_keys = ON;
PRAGMA synchronous = FULL;
PRAGMA temp_store = MEMORY;
`

// Store is an open, decrypted vault database.
type Store struct {
	path     string // on-disk encrypted envelope path (<vault>.vault)
	workDir  string // private directory holding the decrypted working copy
	workFile string // plaintext sqlite file inside workDir
	db       *sql.DB
	kdb      []byte // K_db, zeroized on Close
}

// OpenOrCreate opens the encrypted store at path, creating it if absent.
// kdb is consumed; the caller's copy may be zeroized immediately after the
// call returns, as Store retains its own.
func OpenOrCreate(ctx context.Context, path string, kdb []byte) (*Store, error) {
	kdbCopy := append([]byte(nil), kdb...)

	workDir, err := os.MkdirTemp(filepath.Dir(path), ".keyforge-work-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	workFile := filepath.Join(workDir, "vault.sqlite")

	logKeyApplied(kdbCopy)

	s := &Store{path: path, workDir: workDir, workFile: workFile, kdb: kdbCopy}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.bootstrapNew(ctx); err != nil {
			s.cleanupWorkDir()
			return nil, err
		}
		return s, nil
	}

	if err := s.openExisting(ctx); err != nil {
		s.cleanupWorkDir()
		return nil, err
	}
	return s, nil
}

func (s *Store) bootstrapNew(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.workFile)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	s.db = db

	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	if err := s.Flush(); err != nil {
		return err
	}
	slog.Info("store: created new vault", "path", s.path)
	return nil
}

func (s *Store) openExisting(ctx context.Context) error {
	envelope, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}

	plaintext, err := cryptoutil.Decrypt(s.kdb, envelope)
	if err != nil {
		// §4.F step 3: wrong password and corruption are indistinguishable.
		return keyerr.ErrWrongPasswordOrCorrupt
	}

	if err := os.WriteFile(s.workFile, plaintext, 0600); err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	cryptoutil.Zero(plaintext)

	db, err := sql.Open("sqlite", s.workFile)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", keyerr.ErrDBOpen, err)
	}
	s.db = db

	// Trivial metadata probe: a readable-but-tampered file that still
	// passed AEAD authentication (should never happen) is caught here too.
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		return keyerr.ErrWrongPasswordOrCorrupt
	}

	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	return nil
}

// DB returns the underlying database handle for the token repository.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Flush reseals the current working-copy bytes into the on-disk envelope.
// Called after every mutating repository operation and on Close.
func (s *Store) Flush() error {
	plaintext, err := os.ReadFile(s.workFile)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	defer cryptoutil.Zero(plaintext)

	envelope, err := cryptoutil.Encrypt(s.kdb, plaintext)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrEncryptSecret, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, envelope, 0600); err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	return nil
}

// Close flushes, closes the database connection, removes the decrypted
// working copy, and zeroizes K_db.
func (s *Store) Close() error {
	var flushErr error
	if s.db != nil {
		flushErr = s.Flush()
		if cerr := s.db.Close(); cerr != nil && flushErr == nil {
			flushErr = cerr
		}
	}
	s.cleanupWorkDir()
	cryptoutil.Zero(s.kdb)
	return flushErr
}

func (s *Store) cleanupWorkDir() {
	os.RemoveAll(s.workDir)
}

// logKeyApplied formats kdb as the 64-character lowercase hex literal
// §4.F step 2 describes, then overwrites that transient string before
// returning. No SQLCipher pragma consumes it in this build (see
// SPEC_FULL.md), so its only remaining role is the debug log line; the hex
// value itself is never logged, only its length.
func logKeyApplied(kdb []byte) {
	hexKey := make([]byte, hex.EncodedLen(len(kdb)))
	hex.Encode(hexKey, kdb)
	defer cryptoutil.Zero(hexKey)
	slog.Debug("store: key applied", "key_hex_chars", len(hexKey))
}
