package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyerr"
	"github.com/i-wajidrashid/keyforge/internal/otp"
	"github.com/i-wajidrashid/keyforge/internal/store"
)

// flusher is the subset of *store.Store the repository needs: a database
// handle plus the ability to reseal the encrypted envelope after a write.
type flusher interface {
	DB() *sql.DB
	Flush() error
}

// Repository provides token CRUD on top of an open encrypted store. Each
// secret is additionally wrapped under ksec (K_sec) — defense in depth
// distinct from the store's own whole-database key.
type Repository struct {
	store flusher
	ksec  []byte
}

// New returns a Repository bound to an open store and K_sec. ksec is
// retained by reference; the caller must not zeroize it while the
// repository is in use.
func New(s *store.Store, ksec []byte) *Repository {
	return &Repository{store: s, ksec: ksec}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Add wraps the seed under K_sec, assigns id/timestamps/sort_order, and
// inserts the token. The caller's NewToken.Secret is zeroized before Add
// returns, regardless of outcome.
func (r *Repository) Add(ctx context.Context, nt NewToken) (*Token, error) {
	defer cryptoutil.Zero(nt.Secret)

	wrapped, err := cryptoutil.Encrypt(r.ksec, nt.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrEncryptSecret, err)
	}

	id := uuid.NewString()
	ts := now()

	db := r.store.DB()
	var maxOrder sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(sort_order) FROM tokens").Scan(&maxOrder); err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	sortOrder := 0
	if maxOrder.Valid {
		sortOrder = int(maxOrder.Int64) + 1
	}

	_, err = db.ExecContext(ctx, `INSERT INTO tokens
		(id, issuer, account, secret_encrypted, algorithm, digits, type, period, counter, icon, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nt.Issuer, nt.Account, wrapped, string(nt.Algorithm), nt.Digits, string(nt.Kind),
		nt.Period, int64(nt.Counter), nt.Icon, sortOrder, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}

	if err := r.store.Flush(); err != nil {
		return nil, err
	}

	return &Token{
		ID: id, Issuer: nt.Issuer, Account: nt.Account,
		Algorithm: nt.Algorithm, Digits: nt.Digits, Kind: nt.Kind,
		Period: nt.Period, Counter: nt.Counter, Icon: nt.Icon,
		SortOrder: sortOrder, CreatedAt: ts, UpdatedAt: ts,
	}, nil
}

// List returns all tokens ordered by sort_order ascending. Secrets are
// never returned here.
func (r *Repository) List(ctx context.Context) ([]*Token, error) {
	rows, err := r.store.DB().QueryContext(ctx, `SELECT
		id, issuer, account, algorithm, digits, type, period, counter, icon, sort_order, created_at, updated_at
		FROM tokens ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	defer rows.Close()

	var out []*Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	return out, nil
}

// Get returns a single token, or ErrTokenNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Token, error) {
	row := r.store.DB().QueryRowContext(ctx, `SELECT
		id, issuer, account, algorithm, digits, type, period, counter, icon, sort_order, created_at, updated_at
		FROM tokens WHERE id = ?`, id)

	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, keyerr.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	return t, nil
}

// GetSecret reads and AEAD-decrypts the wrapped seed for id.
func (r *Repository) GetSecret(ctx context.Context, id string) ([]byte, error) {
	var wrapped []byte
	err := r.store.DB().QueryRowContext(ctx, "SELECT secret_encrypted FROM tokens WHERE id = ?", id).Scan(&wrapped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, keyerr.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}

	plaintext, err := cryptoutil.Decrypt(r.ksec, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrDecryptSecret, err)
	}
	return plaintext, nil
}

// Update sets issuer/account and refreshes updated_at. Missing id surfaces
// as ErrTokenNotFound.
func (r *Repository) Update(ctx context.Context, id, issuer, account string) (*Token, error) {
	ts := now()
	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE tokens SET issuer = ?, account = ?, updated_at = ? WHERE id = ?",
		issuer, account, ts, id,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, keyerr.ErrTokenNotFound
	}

	if err := r.store.Flush(); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes the token. Missing id is not an error (idempotent delete).
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.DB().ExecContext(ctx, "DELETE FROM tokens WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	return r.store.Flush()
}

// Reorder assigns a dense 0..len(ids)-1 sequence to the given ids, in one
// transaction. Ids not present retain their prior sort_order; the caller
// is responsible for passing a full permutation when total order matters.
func (r *Repository) Reorder(ctx context.Context, ids []string) error {
	tx, err := r.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	defer tx.Rollback()

	ts := now()
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"UPDATE tokens SET sort_order = ?, updated_at = ? WHERE id = ?",
			i, ts, id,
		); err != nil {
			return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	return r.store.Flush()
}

// IncrementCounter atomically bumps a HOTP token's counter and returns the
// new value. Missing id surfaces as ErrTokenNotFound.
func (r *Repository) IncrementCounter(ctx context.Context, id string) (uint64, error) {
	tx, err := r.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	defer tx.Rollback()

	var counter int64
	err = tx.QueryRowContext(ctx, "SELECT counter FROM tokens WHERE id = ?", id).Scan(&counter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, keyerr.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}

	counter++
	ts := now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE tokens SET counter = ?, updated_at = ? WHERE id = ?",
		counter, ts, id,
	); err != nil {
		return 0, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", keyerr.ErrQuery, err)
	}
	if err := r.store.Flush(); err != nil {
		return 0, err
	}
	return uint64(counter), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*Token, error) {
	var (
		t         Token
		algorithm string
		kind      string
		icon      sql.NullString
	)
	if err := row.Scan(
		&t.ID, &t.Issuer, &t.Account, &algorithm, &t.Digits, &kind,
		&t.Period, &t.Counter, &icon, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Algorithm = otp.Algorithm(algorithm)
	t.Kind = Kind(kind)
	t.Icon = icon.String
	return &t, nil
}
