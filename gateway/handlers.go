package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chat-gateway/auth"
	"chat-gateway/llm"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	// papel sempre começa como "user"; papéis elevados só via seed/admin
	user := auth.User{
		Username: strings.TrimSpace(req.Username),
		Email:    req.Email,
		FullName: req.FullName,
		Role:     auth.RoleUser,
	}

	if err := a.Users.Register(user, req.Password); err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
		a.logger().Printf("register failed: %v", err)
		writeDetail(w, http.StatusInternalServerError, "An error occurred while processing your request.")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin recebe credenciais como form (username/password), no estilo
// OAuth2 password flow, e devolve o token de acesso.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := a.Users.Authenticate(username, password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := a.Tokens.Issue(user.Username, user.Role)
	if err != nil {
		a.logger().Printf("token issue failed for %q: %v", user.Username, err)
		writeDetail(w, http.StatusInternalServerError, "An error occurred while processing your request.")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		// só alcançável se a rota foi registrada sem RequireUser
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	user, ok := a.Users.Get(p.Username)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type chatRequest struct {
	Content string `json:"content"`
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeDetail(w, http.StatusBadRequest, "Message content is required")
		return
	}

	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		a.logger().Printf("chat message from %s", p.Username)
	}

	reply := a.Chat.Chat(r.Context(), llm.NewUserMessage(req.Content))
	writeJSON(w, http.StatusOK, reply)
}

func (a *API) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Chat.History())
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   a.Version,
		"service":   a.AppName,
	})
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        a.AppName,
		"version":     a.Version,
		"description": "Authenticated chat gateway with per-route rate limiting",
	})
}
