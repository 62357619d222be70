package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_IssueParseRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	raw, err := issuer.Issue("alice", RoleModerator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := issuer.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "alice" {
		t.Fatalf("expected username alice, got %q", p.Username)
	}
	if p.Role != RoleModerator {
		t.Fatalf("expected role moderator, got %q", p.Role)
	}
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	raw, err := issuer.Issue("alice", RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_RejectsGarbageAndWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	other := NewTokenIssuer("other-secret", time.Hour)
	raw, err := other.Issue("alice", RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := issuer.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}
