// Package auth holds the security policy primitives of the service: the
// access-token codec, the opaque refresh-token generator, the role-tiered
// expiry policy, the lockout rules and the privilege-escalation guard.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/velorashop/auth-service/internal/model"
)

// TokenTypeAccess is the type discriminator embedded in every access token.
// Verification rejects any other value so a differently-shaped payload signed
// with the same secret can never be accepted as an access token.
const TokenTypeAccess = "access"

// Claims is the signed claim bundle of an access token. TokenVersion is a
// snapshot of the user's fencing counter at issuance time.
type Claims struct {
	Email        string  `json:"email"`
	RoleID       *uint64 `json:"role_id,omitempty"`
	RoleName     string  `json:"role_name,omitempty"`
	TokenVersion int64   `json:"token_version"`
	TokenType    string  `json:"typ"`
	jwt.RegisteredClaims
}

// AccessToken is a signed access token together with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

var (
	ErrInvalidToken = errors.New("invalid access token")

	errUnexpectedSigningMethod = errors.New("unexpected signing method")
)

// TokenCodec signs and verifies access tokens. It is a pure cryptographic
// primitive: Verify checks signature, expiry and the type discriminator but
// deliberately does NOT compare the embedded token_version against the user
// row. That cross-check requires a database read and is the obligation of
// whoever loads the user (see middleware.Authenticate).
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec for the given HS256 signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// Issue signs an access token for the user with the given lifetime. The
// caller resolves the lifetime through the role-tiered expiry policy so the
// token never outlives what its role allows.
func (c *TokenCodec) Issue(u model.User, ttl time.Duration) (AccessToken, error) {
	now := c.now().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		Email:        u.Email,
		TokenVersion: u.TokenVersion,
		TokenType:    TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatUserID(u.ID),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if u.RoleID.Valid {
		id := uint64(u.RoleID.Int64)
		claims.RoleID = &id
	}
	if u.RoleName.Valid {
		claims.RoleName = u.RoleName.String
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify parses and validates a signed access token. It returns
// ErrInvalidToken for every failure mode (bad signature, expiry, wrong type
// discriminator) so callers treat the bearer as unauthenticated rather than
// as a server fault.
func (c *TokenCodec) Verify(raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// UserID parses the subject claim back into a user id.
func (cl Claims) UserID() (uint64, error) {
	return parseUserID(cl.Subject)
}
