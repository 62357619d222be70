package application

import (
	"context"
	"fmt"

	"chat-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit de janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Toda mutação de contador passa pelo incremento atômico do store; não há
// caminho read-then-write aqui.
type Service struct {
	Store  domain.CounterStore
	Limits domain.Limits
}

// Decide avalia a cota da classe para a identidade informada.
//
// Deny é um valor de dado, não um erro. O retorno de erro só acontece quando
// o store está indisponível; nesse caso a Decision devolvida já vem liberada
// (fail open) para o chamador registrar o aviso e seguir.
func (s Service) Decide(ctx context.Context, identity string, class domain.Class) (domain.Decision, error) {
	class, limit := s.resolve(class)

	if s.Store == nil || limit.Requests <= 0 || limit.Window <= 0 {
		return domain.Decision{Allowed: true, FailOpen: true}, nil
	}

	key := counterKey(identity, class)
	count, reset, err := s.Store.Incr(ctx, key, limit.Window)
	if err != nil {
		return domain.Decision{Allowed: true, FailOpen: true},
			fmt.Errorf("increment %q: %w", key, err)
	}

	remaining := limit.Requests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	// count == limit ainda passa; o próximo na mesma janela é bloqueado.
	return domain.Decision{
		Allowed:   count <= int64(limit.Requests),
		Limit:     limit.Requests,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// resolve cai em ClassDefault quando a classe não tem cota configurada.
// A classe efetiva também entra na chave do contador, então uma classe
// desconhecida se comporta exatamente como a default (mesmo orçamento).
func (s Service) resolve(class domain.Class) (domain.Class, domain.Limit) {
	if l, ok := s.Limits[class]; ok {
		return class, l
	}
	return domain.ClassDefault, s.Limits[domain.ClassDefault]
}

// counterKey compõe a chave estável identidade+classe usada no store.
// Identidades distintas nunca compartilham contador.
func counterKey(identity string, class domain.Class) string {
	return "ratelimit:" + string(class) + ":" + identity
}
