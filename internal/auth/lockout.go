package auth

import (
	"math"
	"time"
)

// Lockout policy: LockoutThreshold consecutive failed logins lock the account
// for LockoutDuration. The counter stays at the threshold until a successful
// login (or an explicit admin unlock) resets it.
const (
	LockoutThreshold = 5
	LockoutDuration  = 15 * time.Minute
)

// ShouldLock reports whether the given failure count (after incrementing for
// the current attempt) crosses the lockout threshold.
func ShouldLock(failedAttempts int) bool { return failedAttempts >= LockoutThreshold }

// LockExpiry returns the instant a lock placed at now expires.
func LockExpiry(now time.Time) time.Time { return now.Add(LockoutDuration) }

// RemainingLockMinutes reports the whole minutes left on a lock, rounded up,
// for the user-facing lockout message. Never less than 1 while locked.
func RemainingLockMinutes(lockedUntil, now time.Time) int {
	left := lockedUntil.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}
