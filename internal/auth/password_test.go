package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Correct-Horse-9", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Correct-Horse-9", hash)

	require.True(t, VerifyPassword(hash, "Correct-Horse-9"))
	require.False(t, VerifyPassword(hash, "correct-horse-9"))
	require.False(t, VerifyPassword("", "Correct-Horse-9"))
}

func TestCheckPasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Str0ng&Secure!", true},
		{"valid unicode symbol", "Str0ngΩpass€x", true},
		{"too short", "Ab1!short", false},
		{"no uppercase", "str0ng&secure!pw", false},
		{"no lowercase", "STR0NG&SECURE!PW", false},
		{"no digit", "Strong&Secure!pw", false},
		{"no symbol", "Str0ngSecurePw1", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPasswordStrength(tc.password)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}
