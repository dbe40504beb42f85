package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTGenerateAndParse(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := manager.Generate(userID, "user@example.com", true)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "user@example.com" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret-a", time.Hour).Generate(uuid.New(), "user@example.com", false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := NewJWTManager("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestJWTParseRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, _, err := manager.Generate(uuid.New(), "user@example.com", false)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := manager.Parse(token); err == nil {
		t.Fatalf("expected parse to fail for expired token")
	}
}
