package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-unit-testing"

func TestGenerateAndParseToken(t *testing.T) {
	m := NewManager(testSecret, "learning-platform", 15*time.Minute)

	token, err := m.GenerateToken("user-7", "student", "u7@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.UserID != "user-7" {
		t.Errorf("UserID = %s, want user-7", claims.UserID)
	}
	if claims.Role != "student" {
		t.Errorf("Role = %s, want student", claims.Role)
	}
	if claims.Email != "u7@example.com" {
		t.Errorf("Email = %s", claims.Email)
	}
	if claims.Issuer != "learning-platform" {
		t.Errorf("Issuer = %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("jti should be set")
	}
}

func TestParseToken_Invalid(t *testing.T) {
	m := NewManager(testSecret, "learning-platform", time.Minute)

	if _, err := m.ParseToken("invalid.token.string"); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := m.ParseToken(""); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid for empty token, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := NewManager(testSecret, "learning-platform", time.Minute)
	m2 := NewManager("another-secret-key-entirely", "learning-platform", time.Minute)

	token, _ := m1.GenerateToken("user-1", "admin", "")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("token signed with a different secret must not verify")
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager(testSecret, "learning-platform", time.Millisecond)

	token, _ := m.GenerateToken("user-1", "admin", "")
	time.Sleep(1100 * time.Millisecond)

	if _, err := m.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
