package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/velorashop/auth-service/internal/model"
)

// TokenRepo persists refresh tokens. Only the SHA-256 hash of a token is
// stored; every method takes the hash, never the raw value.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row with its device context.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, userAgent, ipAddress string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, user_agent, ip_address) VALUES (?,?,?,?,?)",
		userID, tokenHash, expiresAt, nullable(userAgent), nullable(ipAddress))
	return err
}

// FindActive returns the non-revoked, non-expired token row with its owning
// user (role joined eagerly), or ErrNotFound. A revoked or expired row is
// indistinguishable from a missing one by design.
func (r *TokenRepo) FindActive(ctx context.Context, tokenHash string) (model.RefreshToken, model.User, error) {
	var (
		t model.RefreshToken
		u model.User
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.token_hash, t.expires_at, t.revoked_at, t.user_agent, t.ip_address, t.created_at,
`+userColumns+`
FROM refresh_tokens t
JOIN users u ON u.id = t.user_id
LEFT JOIN roles r ON r.id = u.role_id
WHERE t.token_hash=? LIMIT 1`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.UserAgent, &t.IPAddress, &t.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RoleID, &u.RoleName,
			&u.TokenVersion, &u.FailedLoginAttempts, &u.LockedUntil, &u.IsActive,
			&u.LastLoginAt, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, model.User{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, model.User{}, err
	}
	if !t.Usable(time.Now().UTC()) {
		return model.RefreshToken{}, model.User{}, ErrNotFound
	}
	return t, u, nil
}

// Revoke marks a token revoked and reports whether this call performed the
// transition. The conditional update makes rotation race-safe: of two
// concurrent refreshes presenting the same token, exactly one sees
// revoked=true and proceeds to issue a successor. Revoking an
// already-revoked or nonexistent token is not an error.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllForUser revokes every active token of a user. This is how a
// stolen-but-unexpired refresh token is neutralized without a blocklist.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// DeleteDead removes expired and revoked rows. Run by the cleanup sweep.
func (r *TokenRepo) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at IS NOT NULL", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
