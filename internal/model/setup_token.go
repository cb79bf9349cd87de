package model

import (
	"database/sql"
	"time"
)

// Setup token purposes. The purpose column keeps the table reusable for other
// one-time-setup flows without token collisions across flows.
const PurposeAdminPasswordSetup = "ADMIN_PASSWORD_SETUP"

// PasswordSetupToken mirrors the 'password_setup_tokens' table. TokenHash is
// a bcrypt hash of the one-time token, so no bearer-equivalent value ever
// sits in storage; matching a presented token therefore requires comparing it
// against every live candidate for the purpose.
type PasswordSetupToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	Purpose   string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

// Live reports whether the token is still unused and unexpired at now.
func (t PasswordSetupToken) Live(now time.Time) bool {
	return !t.UsedAt.Valid && t.ExpiresAt.After(now)
}
