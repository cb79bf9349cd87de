package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/velorashop/auth-service/internal/model"
)

// UserRepo persists user records. All reads join the roles table so callers
// get the resolved role name alongside the row.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.email, u.name, u.password_hash, u.role_id, r.name,
u.token_version, u.failed_login_attempts, u.locked_until, u.is_active,
u.last_login_at, u.password_changed_at, u.created_at, u.updated_at, u.deleted_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RoleID, &u.RoleName,
		&u.TokenVersion, &u.FailedLoginAttempts, &u.LockedUntil, &u.IsActive,
		&u.LastLoginAt, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns its id. passwordHash may be invalid
// (NULL) for social-login-only accounts.
func (r *UserRepo) Create(ctx context.Context, email string, name, passwordHash sql.NullString) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, password_changed_at) VALUES (?,?,?,UTC_TIMESTAMP())",
		email, name, passwordHash)
	if err != nil {
		// MySQL duplicate-key errors carry code 1062.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email, soft-deleted rows included
// (the login flow distinguishes deleted accounts itself).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE u.email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u LEFT JOIN roles r ON r.id = u.role_id WHERE u.id=? LIMIT 1",
		id))
}

// ListByRoleName returns the active, non-deleted accounts holding the named
// role. Used to fan the super-admin promotion notice out to every existing
// highest-tier account.
func (r *UserRepo) ListByRoleName(ctx context.Context, roleName string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id
WHERE r.name=? AND u.is_active=1 AND u.deleted_at IS NULL`, roleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RoleID, &u.RoleName,
			&u.TokenVersion, &u.FailedLoginAttempts, &u.LockedUntil, &u.IsActive,
			&u.LastLoginAt, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordLoginFailure stores the incremented failure counter and, when the
// attempt tripped the threshold, the lock expiry.
func (r *UserRepo) RecordLoginFailure(ctx context.Context, id uint64, attempts int, lockedUntil sql.NullTime) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=?, locked_until=? WHERE id=?",
		attempts, lockedUntil, id)
	return err
}

// RecordLoginSuccess resets the lockout state and stamps the login time,
// independent of prior state.
func (r *UserRepo) RecordLoginSuccess(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=0, locked_until=NULL, last_login_at=? WHERE id=?",
		at, id)
	return err
}

// Unlock clears the lock and the failure counter unconditionally.
func (r *UserRepo) Unlock(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts=0, locked_until=NULL WHERE id=?", id)
	return err
}

// SetRole assigns a role and bumps the token-version fence in a single
// atomic update so a concurrent revocation signal cannot be lost.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role_id=?, token_version=token_version+1 WHERE id=?",
		roleID, id)
	return err
}

// SetActive flips the active flag. Deactivation bumps the token version so
// outstanding access tokens die with the account.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	if active {
		_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=1 WHERE id=?", id)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0, token_version=token_version+1 WHERE id=?", id)
	return err
}

// SetPassword stores a new password hash, stamps the change time and bumps
// the token version, all in one update.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_changed_at=UTC_TIMESTAMP(), token_version=token_version+1 WHERE id=?",
		hash, id)
	return err
}

// SoftDelete marks the account deleted and inactive and fences its tokens.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=?, is_active=0, token_version=token_version+1 WHERE id=? AND deleted_at IS NULL",
		at, id)
	return err
}

// Restore reactivates a soft-deleted account, optionally assigning a role in
// the same update, and fences any tokens issued before the deletion.
func (r *UserRepo) Restore(ctx context.Context, id uint64, roleID sql.NullInt64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=NULL, is_active=1, role_id=?, token_version=token_version+1 WHERE id=? AND deleted_at IS NOT NULL",
		roleID, id)
	return err
}
