package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"chat-gateway/auth"
	"chat-gateway/llm"
	"chat-gateway/middleware/ratelimit"
	"chat-gateway/middleware/ratelimit/domain"
	"chat-gateway/middleware/ratelimit/infra"
)

func testLimits() domain.Limits {
	return domain.Limits{
		domain.ClassDefault:       {Requests: 100, Window: 60 * time.Second},
		domain.ClassAuthenticated: {Requests: 100, Window: 60 * time.Second},
		domain.ClassChat:          {Requests: 2, Window: 60 * time.Second},
	}
}

func newTestHandler(t *testing.T, limits domain.Limits) http.Handler {
	t.Helper()

	users := auth.NewStore()
	api := &API{
		AppName: "chat-gateway",
		Version: "test",
		Users:   users,
		Tokens:  auth.NewTokenIssuer("test-secret", time.Hour),
		Chat:    llm.NewManager(llm.StaticResponder{Content: "pong"}, llm.WithLogger(log.New(io.Discard, "", 0))),
		Logger:  log.New(io.Discard, "", 0),
	}

	return api.Router(ratelimit.Options{
		Store:  infra.NewMemoryStore(),
		Limits: limits,
	}, ratelimit.ConcurrencyOptions{Max: 4})
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	r.RemoteAddr = "10.0.0.1:1234"
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func obtainToken(t *testing.T, h http.Handler, username, password string) string {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("token request: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected token response %+v", resp)
	}
	return resp.AccessToken
}

func TestGateway_RegisterLoginChatFlow(t *testing.T) {
	h := newTestHandler(t, testLimits())

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","password":"pw","email":"alice@example.com"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "pw") {
		t.Fatalf("register response must not echo the password")
	}

	token := obtainToken(t, h, "alice", "pw")

	w = doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"content":"oi"}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var reply struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode chat reply: %v", err)
	}
	if reply.Role != "assistant" || reply.Content != "pong" {
		t.Fatalf("unexpected chat reply %+v", reply)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected chat class limit header 2, got %q", got)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/chat/history", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", w.Code)
	}
	var history []struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(history))
	}
}

func TestGateway_ChatRequiresToken(t *testing.T) {
	h := newTestHandler(t, testLimits())

	w := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"content":"oi"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate=Bearer, got %q", got)
	}
}

func TestGateway_ChatQuotaExhaustionReturns429(t *testing.T) {
	h := newTestHandler(t, testLimits())

	doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw"}`, "")
	token := obtainToken(t, h, "alice", "pw")

	wantRemaining := []string{"1", "0"}
	for i, want := range wantRemaining {
		w := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"content":"oi"}`, token)
		if w.Code != http.StatusOK {
			t.Fatalf("chat %d: expected 200, got %d", i+1, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != want {
			t.Fatalf("chat %d: expected remaining=%s, got %q", i+1, want, got)
		}
	}

	w := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"content":"oi"}`, token)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after quota, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After on 429")
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining=0 on 429, got %q", got)
	}
}

func TestGateway_RegisterRejectsDuplicateUsername(t *testing.T) {
	h := newTestHandler(t, testLimits())

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("first register: expected 200, got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already registered") {
		t.Fatalf("unexpected duplicate register body %q", w.Body.String())
	}
}

func TestGateway_LoginRejectsWrongPassword(t *testing.T) {
	h := newTestHandler(t, testLimits())

	doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw"}`, "")

	form := url.Values{"username": {"alice"}, "password": {"nope"}}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGateway_MeReturnsCurrentUser(t *testing.T) {
	h := newTestHandler(t, testLimits())

	doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw","full_name":"Alice A."}`, "")
	token := obtainToken(t, h, "alice", "pw")

	w := doJSON(t, h, http.MethodGet, "/api/v1/users/me", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var user struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Username != "alice" || user.FullName != "Alice A." {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGateway_HealthAndRootShapes(t *testing.T) {
	h := newTestHandler(t, testLimits())

	w := doJSON(t, h, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" || health["service"] != "chat-gateway" {
		t.Fatalf("unexpected health payload %v", health)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got == "" {
		t.Fatalf("expected quota headers on health")
	}

	w = doJSON(t, h, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("root: expected 200, got %d", w.Code)
	}
	var root map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &root); err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if root["name"] != "chat-gateway" {
		t.Fatalf("unexpected root payload %v", root)
	}
}

func TestGateway_ChatValidatesContent(t *testing.T) {
	h := newTestHandler(t, testLimits())

	doJSON(t, h, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw"}`, "")
	token := obtainToken(t, h, "alice", "pw")

	w := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"content":"  "}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", w.Code)
	}
}
