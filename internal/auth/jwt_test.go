package auth

import (
	"testing"
)

func TestGenerateAndVerify(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret error: %v", err)
	}

	tok, err := GenerateJWT(42, "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	parsed, err := VerifyJWT(tok)
	if err != nil {
		t.Fatalf("VerifyJWT error: %v", err)
	}

	userID, err := UserIDFromToken(parsed)
	if err != nil {
		t.Fatalf("UserIDFromToken error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", userID)
	}
}

func TestVerifyJWT_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret error: %v", err)
	}

	tok, err := GenerateJWT(1, "a@b.com")
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	t.Setenv("JWT_SECRET", "second-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret error: %v", err)
	}

	if _, err := VerifyJWT(tok); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestVerifyJWT_Malformed(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret error: %v", err)
	}

	if _, err := VerifyJWT("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestInitJWTSecret_Missing(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if err := InitJWTSecret(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}
