// Package gateway amarra as rotas HTTP do serviço de chat: registro/login,
// chat e histórico protegidos por token, health e root.
//
// Cada rota declara sua classe de cota no registro (default, authenticated,
// chat); o middleware de rate limit roda depois da autenticação nas rotas
// protegidas, então a cota conta por usuário e uma credencial inválida
// responde 401 sem consumir cota.
package gateway

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"chat-gateway/auth"
	"chat-gateway/llm"
	"chat-gateway/middleware/ratelimit"
	"chat-gateway/middleware/ratelimit/domain"
)

// API agrega as dependências dos handlers. Os campos são colaboradores
// prontos; o pacote não instancia infraestrutura nenhuma.
type API struct {
	AppName string
	Version string

	Users  *auth.Store
	Tokens *auth.TokenIssuer
	Chat   *llm.Manager
	Logger *log.Logger
}

func (a *API) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

// Router monta o chi.Router com a pilha de middlewares por rota.
//
// base chega sem Class/Principal; cada rota recebe sua cópia com a classe
// amarrada. chatConc limita as chamadas simultâneas do endpoint de chat.
func (a *API) Router(base ratelimit.Options, chatConc ratelimit.ConcurrencyOptions) http.Handler {
	base.Principal = func(r *http.Request) (string, bool) {
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			return "user:" + p.Username, true
		}
		return "", false
	}

	limited := func(class domain.Class) func(http.Handler) http.Handler {
		opts := base
		opts.Class = class
		return ratelimit.Middleware(opts)
	}

	requireUser := auth.RequireUser(a.Tokens, a.Users)

	r := chi.NewRouter()
	// panic em handler vira 500 genérico; o stack fica só no log do servidor
	r.Use(chimw.Recoverer)

	r.With(limited(domain.ClassDefault)).Get("/", a.handleRoot)
	r.With(limited(domain.ClassDefault)).Get("/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(limited(domain.ClassDefault)).Post("/auth/register", a.handleRegister)
		r.With(limited(domain.ClassDefault)).Post("/auth/token", a.handleLogin)

		r.With(requireUser, limited(domain.ClassAuthenticated)).Get("/users/me", a.handleMe)
		r.With(requireUser, limited(domain.ClassAuthenticated)).Get("/chat/history", a.handleChatHistory)
		r.With(requireUser, limited(domain.ClassChat), ratelimit.ConcurrencyMiddleware(chatConc)).
			Post("/chat", a.handleChat)
	})

	return r
}
