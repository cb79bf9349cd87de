package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/model"
)

// SetupService completes the one-time password-setup flow for promoted
// social-login accounts.
type SetupService struct {
	users      UserStore
	tokens     TokenStore
	setups     SetupTokenStore
	audit      *audit.Sink
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

func NewSetupService(users UserStore, tokens TokenStore, setups SetupTokenStore, sink *audit.Sink, bcryptCost int, log zerolog.Logger) *SetupService {
	return &SetupService{
		users:      users,
		tokens:     tokens,
		setups:     setups,
		audit:      sink,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

// CompletePasswordSetup redeems a setup token and installs the account's
// first local password. Tokens are stored bcrypt-hashed, so candidates are
// matched by comparing the presented token against each live hash. The
// strength check runs before any token lookup; a weak password must not
// reveal whether the token was good.
func (s *SetupService) CompletePasswordSetup(ctx context.Context, rawToken, password, confirm string, meta audit.RequestMeta) (model.SanitizedUser, error) {
	if password != confirm {
		return model.SanitizedUser{}, ErrPasswordMismatch
	}
	if err := auth.CheckPasswordStrength(password); err != nil {
		return model.SanitizedUser{}, err
	}

	now := s.now()
	candidates, err := s.setups.ListLive(ctx, model.PurposeAdminPasswordSetup, now)
	if err != nil {
		return model.SanitizedUser{}, err
	}

	var match *model.PasswordSetupToken
	for i := range candidates {
		if auth.VerifyPassword(candidates[i].TokenHash, rawToken) {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		return model.SanitizedUser{}, ErrInvalidSetupToken
	}

	user, err := s.users.GetByID(ctx, match.UserID)
	if err != nil {
		return model.SanitizedUser{}, err
	}
	if user.Deleted() || !user.IsActive || !user.Tier().Admin() {
		// The account changed since the token was issued; the token no
		// longer grants anything.
		return model.SanitizedUser{}, ErrNotAdminAccount
	}
	if user.HasPassword() {
		return model.SanitizedUser{}, ErrPasswordAlreadySet
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.SanitizedUser{}, err
	}
	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		return model.SanitizedUser{}, err
	}
	if err := s.setups.MarkUsed(ctx, match.ID, now); err != nil {
		return model.SanitizedUser{}, err
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("session revoke after password setup failed")
	}

	s.audit.Emit(ctx, user.ID, meta, audit.PasswordSetupCompleted{UserID: user.ID, Role: user.RoleName.String})

	updated, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return model.SanitizedUser{}, err
	}
	return updated.Sanitize(), nil
}
