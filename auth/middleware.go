package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey struct{}

// WithPrincipal devolve um contexto carregando a identidade autenticada.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext extrai a identidade autenticada, se houver.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// RequireUser valida o Bearer token da requisição e injeta o Principal no
// contexto antes de chamar o próximo handler.
//
// Falhas respondem 401 com WWW-Authenticate: Bearer sem chegar ao rate limit
// nem ao handler. Usuário desativado responde 400, como o restante da API.
// O papel gravado no token precisa bater com o papel atual do usuário
// (um token antigo de um usuário rebaixado deixa de valer).
func RequireUser(issuer *TokenIssuer, users *Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w)
				return
			}

			p, err := issuer.Parse(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			u, ok := users.Get(p.Username)
			if !ok || u.Role != p.Role {
				unauthorized(w)
				return
			}
			if u.Disabled {
				writeDetail(w, http.StatusBadRequest, "Inactive user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
