package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/velorashop/auth-service/internal/model"
)

// SetupTokenRepo persists one-time password-setup tokens. The stored value
// is a bcrypt hash, so lookup is a scan over live candidates rather than a
// key fetch; ListLive caps that scan by purpose and expiry so the linear
// bcrypt comparison only ever runs over the handful of outstanding tokens.
type SetupTokenRepo struct{ DB *sql.DB }

func NewSetupTokenRepo(db *sql.DB) *SetupTokenRepo { return &SetupTokenRepo{DB: db} }

// Create inserts a setup token row.
func (r *SetupTokenRepo) Create(ctx context.Context, userID uint64, tokenHash, purpose string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_setup_tokens (user_id, token_hash, purpose, expires_at) VALUES (?,?,?,?)",
		userID, tokenHash, purpose, expiresAt)
	return err
}

// ListLive returns the unused, unexpired tokens for a purpose.
func (r *SetupTokenRepo) ListLive(ctx context.Context, purpose string, now time.Time) ([]model.PasswordSetupToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, token_hash, purpose, expires_at, used_at, created_at
FROM password_setup_tokens WHERE purpose=? AND used_at IS NULL AND expires_at > ?`,
		purpose, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []model.PasswordSetupToken
	for rows.Next() {
		var t model.PasswordSetupToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Purpose, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// MarkUsed stamps a token consumed. Idempotent.
func (r *SetupTokenRepo) MarkUsed(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE password_setup_tokens SET used_at=? WHERE id=? AND used_at IS NULL", at, id)
	return err
}

// DeleteDead removes expired and consumed tokens. Run by the cleanup sweep.
func (r *SetupTokenRepo) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_setup_tokens WHERE expires_at < ? OR used_at IS NOT NULL", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
