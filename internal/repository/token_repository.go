package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists refresh tokens by their JTI. Rows are never
// updated except to stamp revoked_at and replaced_by; rotation replaces
// a row with its successor inside one transaction so that two
// concurrent refresh calls cannot both succeed on the same token.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo constructs a TokenRepo with the given DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Store inserts a fresh refresh-token row.
func (r *TokenRepo) Store(ctx context.Context, jti string, userID uint64, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, expires_at) VALUES (?, ?, ?)`,
		jti, userID, exp.UTC())
	return err
}

// Rotate atomically retires oldJTI and records newJTI as its successor.
// The old row is locked for the duration of the transaction; a token
// that is unknown, already revoked or past its expiry yields
// ErrNotFound so that replayed tokens are always rejected.
func (r *TokenRepo) Rotate(ctx context.Context, oldJTI, newJTI string, exp time.Time) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE jti = ? FOR UPDATE`,
		oldJTI).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrNotFound
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP(), replaced_by = ? WHERE jti = ?`,
		newJTI, oldJTI); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, expires_at) VALUES (?, ?, ?)`,
		newJTI, userID, exp.UTC()); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

// Revoke marks a token revoked without a successor (logout). Revoking a
// token that is already revoked or unknown is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, jti string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE jti = ? AND revoked_at IS NULL`,
		jti)
	return err
}

// RevokeAllForUser revokes every active token of a user. Intended as
// the response to a detected replay of a rotated token.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL`,
		userID)
	return err
}
