// Package service implements the authentication, session-lifecycle and
// account-administration flows on top of the persistence layer. Services
// depend on small store interfaces so tests can substitute in-memory fakes.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/velorashop/auth-service/internal/model"
)

// UserStore is the slice of the credential store the services consume.
type UserStore interface {
	Create(ctx context.Context, email string, name, passwordHash sql.NullString) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	ListByRoleName(ctx context.Context, roleName string) ([]model.User, error)
	RecordLoginFailure(ctx context.Context, id uint64, attempts int, lockedUntil sql.NullTime) error
	RecordLoginSuccess(ctx context.Context, id uint64, at time.Time) error
	Unlock(ctx context.Context, id uint64) error
	SetRole(ctx context.Context, id uint64, roleID uint64) error
	SetActive(ctx context.Context, id uint64, active bool) error
	SetPassword(ctx context.Context, id uint64, hash string) error
	SoftDelete(ctx context.Context, id uint64, at time.Time) error
	Restore(ctx context.Context, id uint64, roleID sql.NullInt64) error
}

// TokenStore persists and revokes refresh tokens by hash.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, userAgent, ipAddress string) error
	FindActive(ctx context.Context, tokenHash string) (model.RefreshToken, model.User, error)
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RoleStore resolves role names.
type RoleStore interface {
	GetByName(ctx context.Context, name string) (model.Role, error)
}

// SetupTokenStore persists one-time password-setup tokens.
type SetupTokenStore interface {
	Create(ctx context.Context, userID uint64, tokenHash, purpose string, expiresAt time.Time) error
	ListLive(ctx context.Context, purpose string, now time.Time) ([]model.PasswordSetupToken, error)
	MarkUsed(ctx context.Context, id uint64, at time.Time) error
}
