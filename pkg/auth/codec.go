package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt reads at most 72 bytes of input; longer material must be truncated
// explicitly or GenerateFromPassword rejects it.
const bcryptMaxInput = 72

// TokenCodec derives and verifies stateless bearer tokens. A token is a
// bcrypt hash over username ‖ passwordHash, re-salted on every Issue, so two
// tokens for the same user are different byte strings yet both verify.
// Verification recomputes the one-way check instead of comparing tokens, so
// no token is ever stored server-side; changing the password is the only way
// to revoke outstanding tokens.
type TokenCodec struct {
	cost int
}

// NewTokenCodec creates a codec with the given bcrypt cost. Cost zero means
// bcrypt.DefaultCost.
func NewTokenCodec(cost int) *TokenCodec {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &TokenCodec{cost: cost}
}

// Issue derives a fresh bearer token for the user.
func (c *TokenCodec) Issue(username string, passwordHash []byte) (string, error) {
	token, err := bcrypt.GenerateFromPassword(tokenMaterial(username, passwordHash), c.cost)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// Verify reports whether token proves knowledge of the user's password hash.
// Malformed tokens verify false, never error.
func (c *TokenCodec) Verify(username string, passwordHash []byte, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(token), tokenMaterial(username, passwordHash)) == nil
}

// HashPassword hashes a plaintext password for storage.
func (c *TokenCodec) HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), c.cost)
}

// CheckPassword reports whether password matches the stored hash.
func (c *TokenCodec) CheckPassword(passwordHash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(passwordHash, []byte(password)) == nil
}

func tokenMaterial(username string, passwordHash []byte) []byte {
	material := make([]byte, 0, len(username)+len(passwordHash))
	material = append(material, username...)
	material = append(material, passwordHash...)
	if len(material) > bcryptMaxInput {
		material = material[:bcryptMaxInput]
	}
	return material
}
