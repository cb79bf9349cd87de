package model

import (
	"database/sql"
	"time"
)

// RefreshToken mirrors the 'refresh_tokens' table. Only the SHA-256 hash of
// the opaque token is stored; the raw value is returned to the client exactly
// once. UserAgent and IPAddress are recorded for forensics, not for binding:
// a presented token is honored regardless of the device presenting it.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt sql.NullTime
	UserAgent sql.NullString
	IPAddress sql.NullString
	CreatedAt time.Time
}

// Usable reports whether the token is neither revoked nor expired at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.RevokedAt.Valid && t.ExpiresAt.After(now)
}
