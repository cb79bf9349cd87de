package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// AdminPasswordMinLength is the minimum length for administrative passwords.
const AdminPasswordMinLength = 12

var ErrWeakPassword = errors.New("password must be at least 12 characters and contain an uppercase letter, a lowercase letter, a digit and a symbol")

// CheckPasswordStrength enforces the administrative password policy: minimum
// length plus at least one uppercase letter, lowercase letter, digit and
// symbol. Checked rune-wise rather than with a lookahead regexp, which Go's
// regexp engine does not support.
func CheckPasswordStrength(password string) error {
	var upper, lower, digit, symbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if length < AdminPasswordMinLength || !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}
