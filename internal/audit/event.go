// Package audit defines the security audit sink and its event vocabulary.
// Events are a closed set of typed kinds rather than free-form JSON bags, so
// an auditor knows exactly what payload to expect per kind.
package audit

// Severity classifies how sensitive an audited action is. Critical events are
// additionally fanned out to the security alert queue.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Event is one security-relevant action. Implementations are the fixed event
// kinds below; Values returns the typed old/new payloads persisted with the
// entry (either may be nil).
type Event interface {
	Action() string
	Severity() Severity
	Resource() (kind, id string)
	Values() (oldValue, newValue any)
}

// RequestMeta is the transport context recorded with every entry.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// UserRegistered records a new account.
type UserRegistered struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
}

func (e UserRegistered) Action() string             { return "CREATE_USER" }
func (e UserRegistered) Severity() Severity         { return SeverityInfo }
func (e UserRegistered) Resource() (string, string) { return "user", formatID(e.UserID) }
func (e UserRegistered) Values() (any, any)         { return nil, e }

// LoginSucceeded records a successful authentication.
type LoginSucceeded struct {
	UserID uint64 `json:"user_id"`
}

func (e LoginSucceeded) Action() string             { return "LOGIN_SUCCESS" }
func (e LoginSucceeded) Severity() Severity         { return SeverityInfo }
func (e LoginSucceeded) Resource() (string, string) { return "user", formatID(e.UserID) }
func (e LoginSucceeded) Values() (any, any)         { return nil, nil }

// LoginFailed records a failed authentication attempt. Locked marks the
// failure that tripped the lockout threshold, which is treated as critical.
type LoginFailed struct {
	UserID   uint64 `json:"user_id"`
	Attempts int    `json:"failed_attempts"`
	Locked   bool   `json:"locked"`
}

func (e LoginFailed) Action() string { return "LOGIN_FAILED" }
func (e LoginFailed) Severity() Severity {
	if e.Locked {
		return SeverityCritical
	}
	return SeverityWarning
}
func (e LoginFailed) Resource() (string, string) { return "user", formatID(e.UserID) }
func (e LoginFailed) Values() (any, any)         { return nil, e }

// SessionsRevoked records a revoke-all of a user's refresh tokens.
type SessionsRevoked struct {
	UserID uint64 `json:"user_id"`
	Reason string `json:"reason"`
}

func (e SessionsRevoked) Action() string             { return "SESSIONS_REVOKED" }
func (e SessionsRevoked) Severity() Severity         { return SeverityWarning }
func (e SessionsRevoked) Resource() (string, string) { return "user", formatID(e.UserID) }
func (e SessionsRevoked) Values() (any, any)         { return nil, e }

// RoleChanged records a role grant or change. Changes touching an
// administrative tier are always critical; routine changes are informational.
type RoleChanged struct {
	TargetID  uint64 `json:"target_id"`
	OldRole   string `json:"old_role"`
	NewRole   string `json:"new_role"`
	AdminTier bool   `json:"admin_tier"`
}

func (e RoleChanged) Action() string { return "UPDATE_USER_ROLE" }
func (e RoleChanged) Severity() Severity {
	if e.AdminTier {
		return SeverityCritical
	}
	return SeverityInfo
}
func (e RoleChanged) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e RoleChanged) Values() (any, any) {
	type roleValue struct {
		Role string `json:"role"`
	}
	return roleValue{e.OldRole}, roleValue{e.NewRole}
}

// StatusChanged records activation or deactivation of an account.
type StatusChanged struct {
	TargetID uint64 `json:"target_id"`
	Old      bool   `json:"old"`
	New      bool   `json:"new"`
}

func (e StatusChanged) Action() string {
	if e.New {
		return "ACTIVATE_USER"
	}
	return "DEACTIVATE_USER"
}
func (e StatusChanged) Severity() Severity         { return SeverityWarning }
func (e StatusChanged) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e StatusChanged) Values() (any, any) {
	type statusValue struct {
		IsActive bool `json:"is_active"`
	}
	return statusValue{e.Old}, statusValue{e.New}
}

// AccountUnlocked records an explicit administrative unlock.
type AccountUnlocked struct {
	TargetID uint64 `json:"target_id"`
}

func (e AccountUnlocked) Action() string             { return "UNLOCK_USER_ACCOUNT" }
func (e AccountUnlocked) Severity() Severity         { return SeverityWarning }
func (e AccountUnlocked) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e AccountUnlocked) Values() (any, any)         { return nil, nil }

// UserDeleted records a soft delete.
type UserDeleted struct {
	TargetID uint64 `json:"target_id"`
	Email    string `json:"email"`
}

func (e UserDeleted) Action() string             { return "DELETE_USER" }
func (e UserDeleted) Severity() Severity         { return SeverityCritical }
func (e UserDeleted) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e UserDeleted) Values() (any, any)         { return e, nil }

// UserRestored records restoration of a soft-deleted account.
type UserRestored struct {
	TargetID uint64 `json:"target_id"`
	Role     string `json:"role,omitempty"`
}

func (e UserRestored) Action() string             { return "RESTORE_USER" }
func (e UserRestored) Severity() Severity         { return SeverityWarning }
func (e UserRestored) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e UserRestored) Values() (any, any)         { return nil, e }

// PasswordSetupIssued records a one-time password-setup token being sent to a
// social-login-only administrative account.
type PasswordSetupIssued struct {
	TargetID uint64 `json:"target_id"`
	Role     string `json:"role"`
}

func (e PasswordSetupIssued) Action() string             { return "ADMIN_PASSWORD_SETUP_ISSUED" }
func (e PasswordSetupIssued) Severity() Severity         { return SeverityWarning }
func (e PasswordSetupIssued) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e PasswordSetupIssued) Values() (any, any)         { return nil, e }

// PasswordSetupCompleted records a completed password setup.
type PasswordSetupCompleted struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

func (e PasswordSetupCompleted) Action() string             { return "ADMIN_PASSWORD_SETUP_COMPLETED" }
func (e PasswordSetupCompleted) Severity() Severity         { return SeverityWarning }
func (e PasswordSetupCompleted) Resource() (string, string) { return "user", formatID(e.UserID) }
func (e PasswordSetupCompleted) Values() (any, any)         { return nil, e }

// SuperAdminNoticeFailed records a failure to deliver the promotion notice to
// an existing highest-tier account. Losing that signal defeats the
// anti-backdoor control, so the failure itself is critical.
type SuperAdminNoticeFailed struct {
	TargetID  uint64 `json:"target_id"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

func (e SuperAdminNoticeFailed) Action() string             { return "SUPER_ADMIN_NOTICE_FAILED" }
func (e SuperAdminNoticeFailed) Severity() Severity         { return SeverityCritical }
func (e SuperAdminNoticeFailed) Resource() (string, string) { return "user", formatID(e.TargetID) }
func (e SuperAdminNoticeFailed) Values() (any, any)         { return nil, e }
