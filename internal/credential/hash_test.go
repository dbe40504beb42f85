package credential

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	stored, err := Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.Contains(stored, ":") {
		t.Fatalf("expected canonical salt:hash format, got %q", stored)
	}
	if !Verify("s3cret-pass", stored) {
		t.Fatalf("expected verification to succeed")
	}
	if Verify("wrong-pass", stored) {
		t.Fatalf("expected verification to fail for wrong password")
	}
}

func TestVerifyRejectsRandomPairs(t *testing.T) {
	for i := 0; i < 4; i++ {
		p1, err := NewResetToken()
		if err != nil {
			t.Fatalf("random secret: %v", err)
		}
		p2, err := NewResetToken()
		if err != nil {
			t.Fatalf("random secret: %v", err)
		}
		stored, err := Hash(p1)
		if err != nil {
			t.Fatalf("Hash returned error: %v", err)
		}
		if Verify(p2, stored) {
			t.Fatalf("hash of %q verified against %q", p1, p2)
		}
	}
}

func TestHashEmptySecret(t *testing.T) {
	if _, err := Hash(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestParseStoredHashFormats(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	canonical, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if got := ParseStoredHash(string(legacy)).Format(); got != FormatLegacy {
		t.Fatalf("expected legacy format, got %v", got)
	}
	if got := ParseStoredHash(canonical).Format(); got != FormatCanonical {
		t.Fatalf("expected canonical format, got %v", got)
	}
	if !ParseStoredHash(string(legacy)).IsLegacy() {
		t.Fatalf("expected legacy hash to report IsLegacy")
	}
	if ParseStoredHash(canonical).IsLegacy() {
		t.Fatalf("canonical hash must not report IsLegacy")
	}
}

func TestLegacyBcryptVerify(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !Verify("Secret123", string(legacy)) {
		t.Fatalf("expected legacy hash to verify")
	}
	if Verify("Secret124", string(legacy)) {
		t.Fatalf("expected legacy hash to reject wrong password")
	}
}

func TestVerifyMalformedStoredHash(t *testing.T) {
	malformed := []string{
		"",
		"plain-text",
		"a:b:c",
		"zz:zz",
		":abcdef",
		"abcdef:",
		"abcdef",
	}
	for _, stored := range malformed {
		if Verify("whatever", stored) {
			t.Fatalf("malformed hash %q verified", stored)
		}
		if got := ParseStoredHash(stored).Format(); got != FormatUnknown {
			t.Fatalf("expected %q to parse as unknown, got %v", stored, got)
		}
	}
}
