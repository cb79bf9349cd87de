package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so a caller cannot probe which addresses are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled is returned for deactivated accounts on login and refresh.
	ErrAccountDisabled = errors.New("account has been deactivated")

	// ErrInvalidRefresh is returned for missing, expired, revoked or replayed
	// refresh tokens. The cause is never distinguished to the caller.
	ErrInvalidRefresh = errors.New("invalid or expired refresh token")

	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")

	// ErrNotDeleted means restore was requested for an account that is not soft-deleted.
	ErrNotDeleted = errors.New("account is not deleted")

	// ErrNotLocked means unlock was requested for an account with no active lockout.
	ErrNotLocked = errors.New("account is not locked")

	// ErrInvalidSetupToken covers unknown, expired and already-used setup tokens.
	ErrInvalidSetupToken = errors.New("invalid or expired setup token")

	// ErrPasswordMismatch means the confirmation did not match the new password.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrPasswordAlreadySet rejects setup completion for accounts that already
	// have a password; a live setup token must not overwrite it.
	ErrPasswordAlreadySet = errors.New("password already set")

	// ErrNotAdminAccount rejects setup completion for accounts that no longer
	// hold an admin-tier role.
	ErrNotAdminAccount = errors.New("account is not an admin account")
)

// BadCredentialsError is a failed password check that did not trip the lockout.
// AttemptsLeft tells the caller how many failures remain before the account locks.
type BadCredentialsError struct {
	AttemptsLeft int
}

func (e *BadCredentialsError) Error() string {
	return fmt.Sprintf("invalid email or password, %d attempts remaining", e.AttemptsLeft)
}

func (e *BadCredentialsError) Unwrap() error { return ErrInvalidCredentials }

// LockedError is returned while an account lockout is in force, including on
// the failure that tripped it.
type LockedError struct {
	Until   time.Time
	Minutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.Minutes)
}
