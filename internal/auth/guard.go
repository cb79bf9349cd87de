package auth

import (
	"errors"

	"github.com/velorashop/auth-service/internal/model"
)

// Privilege-escalation guard: authorization predicates consulted before any
// role-changing or account-status-changing action. These are administrative
// actors acting in good faith most of the time, so every rejection carries a
// specific, user-facing reason.
var (
	// ErrSelfMutation: an actor may never change their own role, deactivate
	// their own account, or delete their own account.
	ErrSelfMutation = errors.New("you cannot change your own role or account status")

	// ErrSuperImmutable: the highest tier, once assigned, cannot be changed,
	// deactivated or deleted by anyone.
	ErrSuperImmutable = errors.New("super admin accounts cannot be modified")

	// ErrEscalationDenied: only the highest tier may grant administrative
	// tiers. Blocks two colluding mid-tier actors from minting a third
	// administrative account between them.
	ErrEscalationDenied = errors.New("only a super admin can grant administrative roles")

	// ErrInsufficientTier: the actor does not outrank the role it is granting.
	ErrInsufficientTier = errors.New("insufficient authority to grant this role")

	// ErrSameRole: promoting to the role the target already holds is rejected
	// as a duplicate rather than silently succeeding.
	ErrSameRole = errors.New("user already holds this role")
)

// CanMutateAccount checks the predicates common to every mutation of another
// account's role, active status or existence. The super-peer rule is folded
// into super-tier immutability: a highest-tier target rejects every actor,
// peers included, so a single compromised top-tier credential cannot silently
// reconfigure another top-tier account.
func CanMutateAccount(actor model.Actor, target model.User) error {
	if actor.ID == target.ID {
		return ErrSelfMutation
	}
	if target.Tier().Highest() {
		return ErrSuperImmutable
	}
	return nil
}

// CanGrantRole checks whether the actor may move the target into the given
// role. It assumes CanMutateAccount has already passed.
func CanGrantRole(actor model.Actor, target model.User, newRole model.Role) error {
	newTier := model.TierOf(newRole.Name)
	if newTier.Admin() && !actor.Tier.Highest() {
		return ErrEscalationDenied
	}
	if !actor.Tier.AtLeast(newTier) {
		return ErrInsufficientTier
	}
	if target.RoleName.Valid && model.TierOf(target.RoleName.String) == newTier &&
		target.RoleName.String == newRole.Name {
		return ErrSameRole
	}
	return nil
}

// IsGuardError reports whether err is one of the guard's authorization
// rejections, which map to 403 at the transport boundary.
func IsGuardError(err error) bool {
	return errors.Is(err, ErrSelfMutation) ||
		errors.Is(err, ErrSuperImmutable) ||
		errors.Is(err, ErrEscalationDenied) ||
		errors.Is(err, ErrInsufficientTier) ||
		errors.Is(err, ErrSameRole)
}
