package handlers

import (
	"testing"

	"github.com/vibeseat/vibeseat/services/auth-service/internal/storage"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleAttendant, RoleAdmin} {
		if !validRole(role) {
			t.Fatalf("expected %q to be a valid role", role)
		}
	}
	for _, role := range []string{"", "owner", "superuser", "User"} {
		if validRole(role) {
			t.Fatalf("expected %q to be rejected", role)
		}
	}
}

func TestIssueJWTCarriesRole(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	token, err := issueJWT(storage.User{ID: "u-1", Role: RoleAttendant}, signer)
	if err != nil {
		t.Fatalf("issueJWT failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Sub != "u-1" {
		t.Fatalf("expected sub u-1, got %q", claims.Sub)
	}
	if claims.Role != RoleAttendant {
		t.Fatalf("expected attendant role, got %q", claims.Role)
	}
	if claims.Exp <= claims.Iat {
		t.Fatal("expected expiry after issue time")
	}
}
