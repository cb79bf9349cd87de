package auth

import (
	"time"

	"github.com/velorashop/auth-service/internal/model"
)

// ExpiryPolicy maps a resolved role tier to access/refresh token lifetimes.
// Administrative sessions are deliberately shorter-lived than standard ones:
// higher privilege gets a shorter leash so a compromised admin session has a
// bounded blast radius. The policy must be consulted at every issuance site
// so the two token kinds never drift out of sync with the role that earned
// them.
type ExpiryPolicy struct {
	StandardAccess  time.Duration
	StandardRefresh time.Duration
	AdminAccess     time.Duration
	AdminRefresh    time.Duration
}

// DefaultExpiryPolicy returns the production lifetimes: standard users get
// 1h access / 30d refresh, administrative tiers get 15m access / 24h refresh.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		StandardAccess:  time.Hour,
		StandardRefresh: 30 * 24 * time.Hour,
		AdminAccess:     15 * time.Minute,
		AdminRefresh:    24 * time.Hour,
	}
}

// ForTier returns the {access, refresh} lifetime pair for a tier.
func (p ExpiryPolicy) ForTier(t model.RoleTier) (access, refresh time.Duration) {
	if t.Admin() {
		return p.AdminAccess, p.AdminRefresh
	}
	return p.StandardAccess, p.StandardRefresh
}
