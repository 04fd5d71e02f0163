package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreatePasswordReset stores the hash of a password reset token for userID.
func CreatePasswordReset(ctx context.Context, db *sql.DB, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenHash, userID, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("creating password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset marks an unused, unexpired reset token as used and
// returns the user it was issued for. Returns ErrNotFound for unknown, used or
// expired tokens.
func ConsumePasswordReset(ctx context.Context, db *sql.DB, tokenHash string, now time.Time) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM password_resets
		 WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?`,
		tokenHash, now.Unix(),
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("looking up password reset: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE token_hash = ?`,
		now.Unix(), tokenHash,
	); err != nil {
		return 0, fmt.Errorf("marking password reset used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing password reset: %w", err)
	}
	return userID, nil
}

// PurgePasswordResets removes expired and used reset tokens.
func PurgePasswordResets(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE used_at IS NOT NULL OR expires_at < ?`, now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging password resets: %w", err)
	}
	return result.RowsAffected()
}
