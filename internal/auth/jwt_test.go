package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	v := NewJWTVerifier(secret)

	tok, err := GenerateToken("user-123", "Ankan", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	id, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if id.UserID != "user-123" {
		t.Fatalf("UserID mismatch: got %q want %q", id.UserID, "user-123")
	}
	if id.Name != "Ankan" {
		t.Fatalf("Name mismatch: got %q want %q", id.Name, "Ankan")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("u1", "", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := NewJWTVerifier(secret).Verify(tok); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u1", "", []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := NewJWTVerifier([]byte("wrong")).Verify(tok); err == nil {
		t.Fatal("expected error for wrong secret, got nil")
	}
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTVerifier([]byte("secret")).Verify("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
