package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/i-wajidrashid/keyforge/internal/keyerr"
)

// schemaVersion is the latest migration version this build knows about.
const schemaVersion = 1

// migration is one forward, idempotent schema step.
type migration struct {
	version int
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{version: 1, apply: migrateV1},
}

// runMigrations reads the current schema version (defaulting to 0) and
// applies any migration not yet recorded. The migrations table is the
// source of truth; vault_meta.schema_version is informational only.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT
	)`); err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrMigration, err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrSchemaVersion, err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("%w: version %d: %v", keyerr.ErrMigration, m.version, err)
		}
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO migrations (version, applied_at) VALUES (?, ?)",
		m.version, now,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 creates the tokens and vault_meta tables (spec.md §4.G schema v1).
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tokens (
		id               TEXT PRIMARY KEY,
		issuer           TEXT NOT NULL DEFAULT '',
		account          TEXT NOT NULL DEFAULT '',
		secret_encrypted BLOB NOT NULL,
		algorithm        TEXT NOT NULL,
		digits           INTEGER NOT NULL,
		type             TEXT NOT NULL,
		period           INTEGER NOT NULL DEFAULT 30,
		counter          INTEGER NOT NULL DEFAULT 0,
		icon             TEXT,
		sort_order       INTEGER NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		last_modified    TEXT,
		device_id        TEXT,
		sync_version     INTEGER
	)`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_tokens_sort_order ON tokens (sort_order)"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS vault_meta (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO vault_meta (key, value) VALUES ('schema_version', ?)",
		fmt.Sprintf("%d", schemaVersion),
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO vault_meta (key, value) VALUES ('vault_created_at', ?)",
		now,
	); err != nil {
		return err
	}

	return nil
}
