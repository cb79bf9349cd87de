package model

import (
	"database/sql"
	"time"
)

// User mirrors the 'users' table. PasswordHash is nullable: a NULL hash marks
// a social-login-only account with no local password. RoleID is nullable for
// unassigned (plain customer) accounts; RoleName is joined from roles when the
// row is loaded.
type User struct {
	ID                  uint64
	Email               string
	Name                sql.NullString
	PasswordHash        sql.NullString
	RoleID              sql.NullInt64
	RoleName            sql.NullString
	TokenVersion        int64
	FailedLoginAttempts int
	LockedUntil         sql.NullTime
	IsActive            bool
	LastLoginAt         sql.NullTime
	PasswordChangedAt   sql.NullTime
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           sql.NullTime
}

// Tier resolves the user's authority tier from the joined role name.
func (u User) Tier() RoleTier { return TierOf(u.RoleName.String) }

// HasPassword reports whether the account has a local password set.
func (u User) HasPassword() bool { return u.PasswordHash.Valid && u.PasswordHash.String != "" }

// Deleted reports whether the account has been soft-deleted.
func (u User) Deleted() bool { return u.DeletedAt.Valid }

// LockedAt reports whether the account is locked at the given instant.
func (u User) LockedAt(now time.Time) bool {
	return u.LockedUntil.Valid && u.LockedUntil.Time.After(now)
}

// SanitizedUser is the view of a user safe to return to clients: no hash, no
// lockout counters.
type SanitizedUser struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	RoleID    *uint64    `json:"role_id"`
	RoleName  *string    `json:"role_name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Sanitize strips credential and lockout state from a user record.
func (u User) Sanitize() SanitizedUser {
	s := SanitizedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name.String,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.RoleID.Valid {
		id := uint64(u.RoleID.Int64)
		s.RoleID = &id
	}
	if u.RoleName.Valid {
		name := u.RoleName.String
		s.RoleName = &name
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		s.LastLogin = &t
	}
	return s
}

// Actor is the authenticated principal attached to a request after the access
// token has been verified and cross-checked against the user row.
type Actor struct {
	ID       uint64
	Email    string
	RoleID   *uint64
	RoleName string
	Tier     RoleTier
}

// ActorFromUser builds the request principal from a freshly loaded user row.
func ActorFromUser(u User) Actor {
	a := Actor{ID: u.ID, Email: u.Email, RoleName: u.RoleName.String, Tier: u.Tier()}
	if u.RoleID.Valid {
		id := uint64(u.RoleID.Int64)
		a.RoleID = &id
	}
	return a
}
