package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/models"
)

// CreateUser inserts an account. A taken email yields apperr.ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, u models.User, passwordHash string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, passwordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("index: user %s: %w", u.Email, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("index: create user: %w", err)
	}
	return nil
}

// UserByEmail returns the account and its password hash.
func (db *DB) UserByEmail(ctx context.Context, email string) (models.User, string, error) {
	var u models.User
	var hash string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.Name, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", fmt.Errorf("index: user %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("index: user by email: %w", err)
	}
	return u, hash, nil
}

// User returns the account with the given id.
func (db *DB) User(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("index: user %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("index: user: %w", err)
	}
	return u, nil
}

// RevokeToken records a signed-out token until it would have expired anyway.
func (db *DB) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("index: revoke token: %w", err)
	}
	return nil
}

// TokenRevoked reports whether jti has been revoked.
func (db *DB) TokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: token revoked: %w", err)
	}
	return n > 0, nil
}

// PruneRevokedTokens drops revocations of tokens that have expired by now.
func (db *DB) PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("index: prune tokens: %w", err)
	}
	return res.RowsAffected()
}
