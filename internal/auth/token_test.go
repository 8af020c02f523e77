package auth

import (
	"testing"
	"time"

	"label-cabinet/backstage/internal/constants"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret")

	token, err := v.Sign("8a3c2e7e-4b5f-4d17-9a58-1f3c1b9d7e21", "artist@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Expected token to verify, got %v", err)
	}
	if claims.Subject != "8a3c2e7e-4b5f-4d17-9a58-1f3c1b9d7e21" {
		t.Errorf("Expected subject to round-trip, got %s", claims.Subject)
	}
	if claims.Email != "artist@example.com" {
		t.Errorf("Expected email artist@example.com, got %s", claims.Email)
	}
}

func TestTokenVerifier_RejectsOtherSecret(t *testing.T) {
	token, _ := NewTokenVerifier("one").Sign("sub", "a@b.c", time.Hour)

	if _, err := NewTokenVerifier("two").Verify(token); err == nil {
		t.Error("Expected verification failure with a different secret")
	}
}

func TestTokenVerifier_RejectsExpired(t *testing.T) {
	v := NewTokenVerifier("secret")
	token, _ := v.Sign("sub", "a@b.c", -time.Minute)

	if _, err := v.Verify(token); err == nil {
		t.Error("Expected verification failure for expired token")
	}
}

func TestAPIKeyClaims_StableServiceID(t *testing.T) {
	a := &APIKeyClaims{Label: "royalty-import"}
	b := &APIKeyClaims{Label: "royalty-import"}

	if a.UserID() != b.UserID() {
		t.Error("Expected the same label to map to the same principal id")
	}
	if a.Role() != constants.RoleAdmin || !a.IsStaff() {
		t.Error("Expected API key principal to act as admin")
	}
}
