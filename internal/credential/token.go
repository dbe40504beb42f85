package credential

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenByteLength is the raw entropy of a reset token: 32 bytes, 256 bits.
const tokenByteLength = 32

// NewResetToken draws a fresh reset token and encodes it as unpadded
// base64url, yielding exactly 43 characters. This is the only representation
// that ever leaves the system (inside the reset email); everything persisted
// is a salted hash of it.
func NewResetToken() (string, error) {
	raw := make([]byte, tokenByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashResetToken derives the storable salt:hash form of a plaintext reset
// token. The construction is identical to password hashing; salts are drawn
// independently per call, so the two domains never share derived keys.
func HashResetToken(plaintext string) (string, error) {
	return Hash(plaintext)
}
