package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/repository"
)

// TokenPair is the result of a successful issuance: one short-lived access
// JWT plus one opaque refresh token. RefreshTTL drives the cookie max-age at
// the transport boundary.
type TokenPair struct {
	User             model.SanitizedUser
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTTL       time.Duration
	RefreshExpiresAt time.Time
}

// AuthService owns registration, login, refresh rotation and logout.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	codec      *auth.TokenCodec
	expiry     auth.ExpiryPolicy
	audit      *audit.Sink
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

// NewAuthService wires the auth flows. now is overridable in tests.
func NewAuthService(users UserStore, tokens TokenStore, codec *auth.TokenCodec, expiry auth.ExpiryPolicy, sink *audit.Sink, bcryptCost int, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		codec:      codec,
		expiry:     expiry,
		audit:      sink,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

// Register creates a customer account with a local password and signs it in.
func (s *AuthService) Register(ctx context.Context, email, name, password string, meta audit.RequestMeta) (TokenPair, error) {
	email = normalizeEmail(email)

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.Create(ctx, email, nullString(name), sql.NullString{String: hash, Valid: true})
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return TokenPair{}, err
	}

	s.audit.Emit(ctx, id, meta, audit.UserRegistered{UserID: id, Email: email})
	return s.issuePair(ctx, user, meta)
}

// Login authenticates an email/password pair and drives the lockout state
// machine. Unknown emails and wrong passwords return the same error; lockout
// state, once reached, is disclosed with the remaining minutes because the
// account owner is assumed to be the one staring at the message.
func (s *AuthService) Login(ctx context.Context, email, password string, meta audit.RequestMeta) (TokenPair, error) {
	now := s.now()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if user.Deleted() {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenPair{}, ErrAccountDisabled
	}
	if user.LockedAt(now) {
		// Skip the password check entirely while locked: the counter must
		// not move and timing must not leak whether the guess was right.
		return TokenPair{}, &LockedError{
			Until:   user.LockedUntil.Time,
			Minutes: auth.RemainingLockMinutes(user.LockedUntil.Time, now),
		}
	}

	if !user.HasPassword() || !auth.VerifyPassword(user.PasswordHash.String, password) {
		return TokenPair{}, s.recordFailure(ctx, user, now, meta)
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return TokenPair{}, err
	}
	s.audit.Emit(ctx, user.ID, meta, audit.LoginSucceeded{UserID: user.ID})
	return s.issuePair(ctx, user, meta)
}

func (s *AuthService) recordFailure(ctx context.Context, user model.User, now time.Time, meta audit.RequestMeta) error {
	attempts := user.FailedLoginAttempts + 1
	locked := auth.ShouldLock(attempts)

	var until sql.NullTime
	if locked {
		until = sql.NullTime{Time: auth.LockExpiry(now), Valid: true}
	}
	if err := s.users.RecordLoginFailure(ctx, user.ID, attempts, until); err != nil {
		return err
	}

	s.audit.Emit(ctx, user.ID, meta, audit.LoginFailed{UserID: user.ID, Attempts: attempts, Locked: locked})

	if locked {
		return &LockedError{Until: until.Time, Minutes: auth.RemainingLockMinutes(until.Time, now)}
	}
	return &BadCredentialsError{AttemptsLeft: auth.LockoutThreshold - attempts}
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued in its place. The revoke is conditional, so of two
// concurrent presentations of the same token exactly one wins; the loser gets
// ErrInvalidRefresh like any other replay.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, meta audit.RequestMeta) (TokenPair, error) {
	hash := auth.HashRefreshToken(rawToken)

	_, user, err := s.tokens.FindActive(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefresh
		}
		return TokenPair{}, err
	}
	if user.Deleted() || !user.IsActive {
		return TokenPair{}, ErrAccountDisabled
	}

	revoked, err := s.tokens.Revoke(ctx, hash)
	if err != nil {
		return TokenPair{}, err
	}
	if !revoked {
		return TokenPair{}, ErrInvalidRefresh
	}

	return s.issuePair(ctx, user, meta)
}

// Logout revokes the presented refresh token. Best-effort: an unknown or
// already-revoked token still logs the caller out.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}
	if _, err := s.tokens.Revoke(ctx, auth.HashRefreshToken(rawToken)); err != nil {
		s.log.Warn().Err(err).Msg("logout revoke failed")
	}
}

// LogoutAll revokes every refresh session of the authenticated user.
func (s *AuthService) LogoutAll(ctx context.Context, actor model.Actor, meta audit.RequestMeta) error {
	if err := s.tokens.RevokeAllForUser(ctx, actor.ID); err != nil {
		return err
	}
	s.audit.Emit(ctx, actor.ID, meta, audit.SessionsRevoked{UserID: actor.ID, Reason: "logout_all"})
	return nil
}

// issuePair creates the access/refresh pair for a user, with lifetimes picked
// by the user's current tier.
func (s *AuthService) issuePair(ctx context.Context, user model.User, meta audit.RequestMeta) (TokenPair, error) {
	accessTTL, refreshTTL := s.expiry.ForTier(user.Tier())

	access, err := s.codec.Issue(user, accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	raw, err := auth.NewRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshExpiry := s.now().Add(refreshTTL)
	if err := s.tokens.Store(ctx, user.ID, auth.HashRefreshToken(raw), refreshExpiry, meta.UserAgent, meta.IPAddress); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{
		User:             user.Sanitize(),
		AccessToken:      access.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     raw,
		RefreshTTL:       refreshTTL,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
