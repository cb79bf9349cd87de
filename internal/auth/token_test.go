package auth

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/velorashop/auth-service/internal/model"
)

func testUser() model.User {
	return model.User{
		ID:           42,
		Email:        "staff@example.com",
		RoleID:       sql.NullInt64{Int64: 2, Valid: true},
		RoleName:     sql.NullString{String: model.RoleStaff, Valid: true},
		TokenVersion: 7,
		IsActive:     true,
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	issued, err := codec.Issue(testUser(), 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 5*time.Second)

	claims, err := codec.Verify(issued.Token)
	require.NoError(t, err)
	require.Equal(t, "staff@example.com", claims.Email)
	require.Equal(t, model.RoleStaff, claims.RoleName)
	require.Equal(t, int64(7), claims.TokenVersion)
	require.Equal(t, TokenTypeAccess, claims.TokenType)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
}

func TestTokenCodecRejectsWrongSecret(t *testing.T) {
	issued, err := NewTokenCodec("secret-a").Issue(testUser(), time.Minute)
	require.NoError(t, err)

	_, err = NewTokenCodec("secret-b").Verify(issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	issued, err := codec.Issue(testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsWrongType(t *testing.T) {
	codec := NewTokenCodec("test-secret")

	// A token signed with the right secret but the wrong type discriminator
	// must not pass as an access token.
	claims := Claims{
		Email:     "staff@example.com",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	_, err := NewTokenCodec("test-secret").Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
