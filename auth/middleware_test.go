package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protectedHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Errorf("expected principal in context")
		}
		if p.Username != wantUser {
			t.Errorf("expected principal %q, got %q", wantUser, p.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser_AllowsValidToken(t *testing.T) {
	users := NewStore()
	if err := users.Register(User{Username: "alice"}, "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issuer := NewTokenIssuer("secret", time.Hour)
	raw, err := issuer.Issue("alice", RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := RequireUser(issuer, users)(protectedHandler(t, "alice"))

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireUser_RejectsMissingAndMalformedToken(t *testing.T) {
	users := NewStore()
	issuer := NewTokenIssuer("secret", time.Hour)
	h := RequireUser(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run without credentials")
	}))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer invalid-token"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
		if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Fatalf("header %q: expected WWW-Authenticate=Bearer, got %q", header, got)
		}
	}
}

func TestRequireUser_RejectsDisabledUser(t *testing.T) {
	users := NewStore()
	if err := users.Register(User{Username: "alice", Disabled: true}, "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issuer := NewTokenIssuer("secret", time.Hour)
	raw, _ := issuer.Issue("alice", RoleUser)

	h := RequireUser(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run for disabled user")
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRequireUser_RejectsStaleRoleClaim(t *testing.T) {
	users := NewStore()
	if err := users.Register(User{Username: "alice", Role: RoleUser}, "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issuer := NewTokenIssuer("secret", time.Hour)
	// token emitido com papel que não bate com o registro atual
	raw, _ := issuer.Issue("alice", RoleAdmin)

	h := RequireUser(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run with stale role")
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
