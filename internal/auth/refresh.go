package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// refreshTokenBytes is the entropy of a raw refresh token: 32 bytes = 256
// bits, hex-encoded to 64 characters.
const refreshTokenBytes = 32

// NewRefreshToken returns a cryptographically random opaque token. Only its
// hash (HashRefreshToken) is persisted; the raw value goes back to the client
// exactly once.
func NewRefreshToken() (string, error) {
	return randomToken()
}

// HashRefreshToken returns the SHA-256 hash of a raw refresh token as a hex
// string. Storing only the hash keeps a stolen database dump from yielding
// usable sessions.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewSetupToken returns a cryptographically random one-time token for the
// password-setup flow. Unlike refresh tokens it is stored bcrypt-hashed, so
// its 64 hex characters stay under bcrypt's input limit.
func NewSetupToken() (string, error) {
	return randomToken()
}

func randomToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func formatUserID(id uint64) string { return strconv.FormatUint(id, 10) }

func parseUserID(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }
