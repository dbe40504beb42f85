package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// Canonical hashes are stored as "<hex salt>:<hex scrypt key>". The scrypt
// parameters are not encoded in the string, so they are fixed constants of
// the format and must not change without a migration.
const (
	saltLength = 16
	keyLength  = 64

	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
)

// Format identifies the stored-hash variant detected by ParseStoredHash.
type Format int

const (
	FormatUnknown Format = iota
	// FormatLegacy is a bcrypt hash inherited from the previous auth system.
	FormatLegacy
	// FormatCanonical is the scrypt salt:hash format this system writes.
	FormatCanonical
)

// StoredHash is a stored credential hash parsed once at the boundary.
// Verification dispatches on the detected format instead of re-sniffing the
// raw string at every call site.
type StoredHash struct {
	format Format
	raw    string
	salt   []byte
	digest []byte
}

// ParseStoredHash classifies a stored hash string. Anything that is neither
// a bcrypt hash nor a well-formed salt:hash pair parses as FormatUnknown,
// which verifies as false rather than failing.
func ParseStoredHash(stored string) StoredHash {
	if strings.HasPrefix(stored, "$2") {
		return StoredHash{format: FormatLegacy, raw: stored}
	}

	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return StoredHash{format: FormatUnknown, raw: stored}
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil || len(salt) == 0 {
		return StoredHash{format: FormatUnknown, raw: stored}
	}
	digest, err := hex.DecodeString(parts[1])
	if err != nil || len(digest) == 0 {
		return StoredHash{format: FormatUnknown, raw: stored}
	}
	return StoredHash{format: FormatCanonical, raw: stored, salt: salt, digest: digest}
}

func (h StoredHash) Format() Format {
	return h.format
}

// IsLegacy reports whether a successful verification should trigger a rehash
// to the canonical format.
func (h StoredHash) IsLegacy() bool {
	return h.format == FormatLegacy
}

// Verify checks a plaintext secret against the stored hash. Malformed input
// and derivation failures report false; a verification failure is never
// distinguishable from a malformed record by the caller.
func (h StoredHash) Verify(secret string) bool {
	switch h.format {
	case FormatLegacy:
		return bcrypt.CompareHashAndPassword([]byte(h.raw), []byte(secret)) == nil
	case FormatCanonical:
		candidate, err := deriveKey(secret, h.salt)
		if err != nil {
			return false
		}
		// ConstantTimeCompare requires equal-length buffers; a length
		// mismatch can only come from a record written with different
		// parameters and is a plain reject.
		if len(candidate) != len(h.digest) {
			return false
		}
		return subtle.ConstantTimeCompare(candidate, h.digest) == 1
	default:
		return false
	}
}

// Hash derives a canonical salt:hash string from a plaintext secret using a
// fresh random salt.
func Hash(secret string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("credential: empty secret")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := deriveKey(secret, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify is the one-shot form of ParseStoredHash + StoredHash.Verify.
func Verify(secret, stored string) bool {
	return ParseStoredHash(stored).Verify(secret)
}

func deriveKey(secret string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(secret), salt, scryptN, scryptR, scryptP, keyLength)
}
