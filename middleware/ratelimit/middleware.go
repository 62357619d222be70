package ratelimit

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"chat-gateway/middleware/ratelimit/application"
	"chat-gateway/middleware/ratelimit/domain"
)

// KeyFunc extrai a identidade de rede do cliente (IP/header/XFF).
type KeyFunc func(r *http.Request) string

// PrincipalFunc extrai a identidade autenticada do contexto da requisição,
// quando houver. Retornando ok=false, o middleware cai na KeyFunc.
//
// Quem injeta é o wiring do gateway; este pacote não conhece o mecanismo
// de autenticação.
type PrincipalFunc func(r *http.Request) (identity string, ok bool)

type Options struct {
	Store  domain.CounterStore
	Limits domain.Limits

	// Class é a classe de cota desta rota, amarrada explicitamente no
	// registro (o middleware não inspeciona rota nenhuma).
	// Vazio equivale a domain.ClassDefault.
	Class domain.Class

	Stats domain.StatsStore

	Principal          PrincipalFunc
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	RejectStatus int
	Logger       *log.Logger
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Middleware aplica a cota da classe configurada a cada requisição:
// classifica (principal autenticado ou IP), decide contra o store e então
// libera com headers de cota ou responde 429 sem chamar o próximo handler.
//
// Store indisponível é fail open: a requisição segue, sem headers de cota,
// com um aviso no log. Disponibilidade do chat vale mais que a precisão da
// cota durante um outage de infraestrutura.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.Class == "" {
		opts.Class = domain.ClassDefault
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	svc := application.Service{
		Store:  opts.Store,
		Limits: opts.Limits,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ""
			if opts.Principal != nil {
				if id, ok := opts.Principal(r); ok {
					identity = id
				}
			}
			if identity == "" {
				identity = opts.KeyFn(r)
			}

			dec, err := svc.Decide(r.Context(), identity, opts.Class)
			if err != nil {
				// fail open documentado: libera sem contagem
				logger.Printf("rate limit store unavailable, failing open: %v", err)
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Identity: identity,
					Class:    opts.Class,
					Allowed:  dec.Allowed,
					Method:   r.Method,
					Path:     r.URL.Path,
					At:       time.Now(),
				})
			}

			if !dec.FailOpen {
				setQuotaHeaders(w.Header(), dec)
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(resetSeconds(dec.Reset)))
				writeTooManyRequests(w, opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setQuotaHeaders(h http.Header, dec domain.Decision) {
	h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
	h.Set("X-RateLimit-Reset", formatInt(resetSeconds(dec.Reset)))
}

func writeTooManyRequests(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Rate limit exceeded"})
}
