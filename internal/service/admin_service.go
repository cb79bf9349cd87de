package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/mailer"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/repository"
)

// SetupTokenTTL is how long a one-time password-setup token stays redeemable.
const SetupTokenTTL = 24 * time.Hour

// PromoteResult reports a role change. RequiresPasswordSetup is set when the
// target was moved into an administrative tier without a local password and a
// setup mail was dispatched.
type PromoteResult struct {
	User                  model.SanitizedUser
	RequiresPasswordSetup bool
}

// AdminService owns the administrative account-lifecycle operations: role
// grants, activation, unlock, soft delete and restore. Every mutation runs
// the escalation guard first and revokes the target's sessions after, so a
// demoted or deactivated account cannot ride out its old tokens.
type AdminService struct {
	users      UserStore
	tokens     TokenStore
	roles      RoleStore
	setups     SetupTokenStore
	mail       *mailer.Mailer
	audit      *audit.Sink
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

func NewAdminService(users UserStore, tokens TokenStore, roles RoleStore, setups SetupTokenStore, mail *mailer.Mailer, sink *audit.Sink, bcryptCost int, log zerolog.Logger) *AdminService {
	return &AdminService{
		users:      users,
		tokens:     tokens,
		roles:      roles,
		setups:     setups,
		mail:       mail,
		audit:      sink,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

func (s *AdminService) liveTarget(ctx context.Context, id uint64) (model.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if target.Deleted() {
		return model.User{}, ErrUserNotFound
	}
	return target, nil
}

// PromoteRole moves the target into the named role. The grant revokes every
// session the target holds, issues a password-setup token when an
// administrative tier lands on a social-login-only account, and notifies all
// existing super admins when the highest tier is granted.
func (s *AdminService) PromoteRole(ctx context.Context, actor model.Actor, targetID uint64, roleName string, meta audit.RequestMeta) (PromoteResult, error) {
	target, err := s.liveTarget(ctx, targetID)
	if err != nil {
		return PromoteResult{}, err
	}
	if err := auth.CanMutateAccount(actor, target); err != nil {
		return PromoteResult{}, err
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PromoteResult{}, ErrRoleNotFound
		}
		return PromoteResult{}, err
	}
	if err := auth.CanGrantRole(actor, target, role); err != nil {
		return PromoteResult{}, err
	}

	if err := s.users.SetRole(ctx, target.ID, role.ID); err != nil {
		return PromoteResult{}, err
	}
	if err := s.tokens.RevokeAllForUser(ctx, target.ID); err != nil {
		return PromoteResult{}, err
	}

	newTier := model.TierOf(role.Name)
	oldRole := target.RoleName.String

	result := PromoteResult{}
	if newTier.Admin() && !target.HasPassword() {
		if err := s.issueSetupToken(ctx, actor, target, role, meta); err != nil {
			return PromoteResult{}, err
		}
		result.RequiresPasswordSetup = true
	}
	if newTier.Highest() {
		s.notifySuperAdmins(ctx, actor, target, role, meta)
	}

	s.audit.Emit(ctx, actor.ID, meta, audit.RoleChanged{
		TargetID:  target.ID,
		OldRole:   oldRole,
		NewRole:   role.Name,
		AdminTier: newTier.Admin() || target.Tier().Admin(),
	})

	updated, err := s.users.GetByID(ctx, target.ID)
	if err != nil {
		return PromoteResult{}, err
	}
	result.User = updated.Sanitize()
	return result, nil
}

// issueSetupToken mints a one-time token for the target's first password and
// mails the setup link. The raw token lives only in the mail; the store
// carries a bcrypt hash.
func (s *AdminService) issueSetupToken(ctx context.Context, actor model.Actor, target model.User, role model.Role, meta audit.RequestMeta) error {
	raw, err := auth.NewSetupToken()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(raw, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.setups.Create(ctx, target.ID, hash, model.PurposeAdminPasswordSetup, s.now().Add(SetupTokenTTL)); err != nil {
		return err
	}

	if err := s.mail.SendPasswordSetup(ctx, target.Email, target.Name.String, role.Name, raw, SetupTokenTTL); err != nil {
		// The token is already persisted; the target can be re-promoted or
		// the mail retried out of band. Do not unwind the grant.
		s.log.Error().Err(err).Uint64("target_id", target.ID).Msg("password setup mail failed")
	}

	s.audit.Emit(ctx, actor.ID, meta, audit.PasswordSetupIssued{TargetID: target.ID, Role: role.Name})
	return nil
}

// notifySuperAdmins mails the transparency notice for a highest-tier grant to
// every existing super admin. Delivery failures never abort the grant, but
// each one is a critical audit event: a silently swallowed notice is exactly
// what a backdoor grant would want.
func (s *AdminService) notifySuperAdmins(ctx context.Context, actor model.Actor, target model.User, role model.Role, meta audit.RequestMeta) {
	admins, err := s.users.ListByRoleName(ctx, model.RoleSuperAdmin)
	if err != nil {
		s.log.Error().Err(err).Msg("super admin list failed; promotion notices not sent")
		s.audit.Emit(ctx, actor.ID, meta, audit.SuperAdminNoticeFailed{
			TargetID:  target.ID,
			Recipient: "*",
			Reason:    err.Error(),
		})
		return
	}

	notice := mailer.SuperAdminNotice{
		ActorEmail:  actor.Email,
		TargetEmail: target.Email,
		RoleName:    role.Name,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		OccurredAt:  s.now(),
	}
	for _, admin := range admins {
		if admin.ID == target.ID {
			continue
		}
		if err := s.mail.SendSuperAdminNotice(ctx, admin.Email, notice); err != nil {
			s.log.Error().Err(err).Str("recipient", admin.Email).Msg("super admin notice failed")
			s.audit.Emit(ctx, actor.ID, meta, audit.SuperAdminNoticeFailed{
				TargetID:  target.ID,
				Recipient: admin.Email,
				Reason:    err.Error(),
			})
		}
	}
}

// SetStatus activates or deactivates the target. Deactivation revokes every
// session so the account goes dark immediately, not at access-token expiry.
func (s *AdminService) SetStatus(ctx context.Context, actor model.Actor, targetID uint64, active bool, meta audit.RequestMeta) (model.SanitizedUser, error) {
	target, err := s.liveTarget(ctx, targetID)
	if err != nil {
		return model.SanitizedUser{}, err
	}
	if err := auth.CanMutateAccount(actor, target); err != nil {
		return model.SanitizedUser{}, err
	}

	if err := s.users.SetActive(ctx, target.ID, active); err != nil {
		return model.SanitizedUser{}, err
	}
	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, target.ID); err != nil {
			return model.SanitizedUser{}, err
		}
	}

	s.audit.Emit(ctx, actor.ID, meta, audit.StatusChanged{TargetID: target.ID, Old: target.IsActive, New: active})

	updated, err := s.users.GetByID(ctx, target.ID)
	if err != nil {
		return model.SanitizedUser{}, err
	}
	return updated.Sanitize(), nil
}

// Unlock clears the target's lockout state ahead of its natural expiry.
func (s *AdminService) Unlock(ctx context.Context, actor model.Actor, targetID uint64, meta audit.RequestMeta) error {
	target, err := s.liveTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if !target.LockedUntil.Valid && target.FailedLoginAttempts == 0 {
		return ErrNotLocked
	}

	if err := s.users.Unlock(ctx, target.ID); err != nil {
		return err
	}
	s.audit.Emit(ctx, actor.ID, meta, audit.AccountUnlocked{TargetID: target.ID})
	return nil
}

// SoftDelete marks the target deleted and revokes its sessions. The row
// survives for audit and restore.
func (s *AdminService) SoftDelete(ctx context.Context, actor model.Actor, targetID uint64, meta audit.RequestMeta) error {
	target, err := s.liveTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if err := auth.CanMutateAccount(actor, target); err != nil {
		return err
	}

	if err := s.users.SoftDelete(ctx, target.ID, s.now()); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, target.ID); err != nil {
		return err
	}

	s.audit.Emit(ctx, actor.ID, meta, audit.UserDeleted{TargetID: target.ID, Email: target.Email})
	return nil
}

// Restore reactivates a soft-deleted account, optionally assigning a role in
// the same step. With no role the account comes back at the base tier; the
// administrative side effects (setup token, super admin notices) fire exactly
// as they would on a promotion.
func (s *AdminService) Restore(ctx context.Context, actor model.Actor, targetID uint64, roleName string, meta audit.RequestMeta) (PromoteResult, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PromoteResult{}, ErrUserNotFound
		}
		return PromoteResult{}, err
	}
	if !target.Deleted() {
		return PromoteResult{}, ErrNotDeleted
	}
	if err := auth.CanMutateAccount(actor, target); err != nil {
		return PromoteResult{}, err
	}

	var role model.Role
	roleID := sql.NullInt64{}
	if roleName != "" {
		role, err = s.roles.GetByName(ctx, roleName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return PromoteResult{}, ErrRoleNotFound
			}
			return PromoteResult{}, err
		}
		if err := auth.CanGrantRole(actor, target, role); err != nil {
			return PromoteResult{}, err
		}
		roleID = sql.NullInt64{Int64: int64(role.ID), Valid: true}
	}

	if err := s.users.Restore(ctx, target.ID, roleID); err != nil {
		return PromoteResult{}, err
	}

	result := PromoteResult{}
	if roleName != "" {
		newTier := model.TierOf(role.Name)
		if newTier.Admin() && !target.HasPassword() {
			if err := s.issueSetupToken(ctx, actor, target, role, meta); err != nil {
				return PromoteResult{}, err
			}
			result.RequiresPasswordSetup = true
		}
		if newTier.Highest() {
			s.notifySuperAdmins(ctx, actor, target, role, meta)
		}
	}

	s.audit.Emit(ctx, actor.ID, meta, audit.UserRestored{TargetID: target.ID, Role: role.Name})

	updated, err := s.users.GetByID(ctx, target.ID)
	if err != nil {
		return PromoteResult{}, err
	}
	result.User = updated.Sanitize()
	return result, nil
}
