package services

import (
	"testing"
	"time"
)

func TestLoginStateSingleUse(t *testing.T) {
	store := NewLoginStateStore(time.Minute)

	state := store.Issue("https://app.example/after-login")

	redirect, ok := store.Take(state)
	if !ok {
		t.Fatal("fresh state should redeem")
	}
	if redirect != "https://app.example/after-login" {
		t.Errorf("redirect = %q", redirect)
	}

	if _, ok := store.Take(state); ok {
		t.Error("state redeemed twice")
	}
}

func TestLoginStateUnknown(t *testing.T) {
	store := NewLoginStateStore(time.Minute)
	if _, ok := store.Take("never-issued"); ok {
		t.Error("unknown state should not redeem")
	}
}

func TestLoginStateExpiry(t *testing.T) {
	store := NewLoginStateStore(-time.Second) // already expired on issue

	state := store.Issue("")
	if _, ok := store.Take(state); ok {
		t.Error("expired state should not redeem")
	}
}

func TestLoginStateSweep(t *testing.T) {
	store := NewLoginStateStore(-time.Second)
	store.Issue("")
	store.Issue("")

	if n := store.Sweep(); n != 2 {
		t.Errorf("evicted = %d, want 2", n)
	}
	if n := store.Sweep(); n != 0 {
		t.Errorf("second sweep evicted = %d, want 0", n)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("subject = %q, want user-123", userID)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("different-secret", time.Hour)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("token signed with another secret should fail verification")
	}
	if _, err := issuer.Verify(token + "x"); err == nil {
		t.Error("mangled token should fail verification")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Error("expired token should fail verification")
	}
}
