package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"time"
)

// Class nomeia uma categoria de requisições que compartilha uma mesma cota
// (ex: "chat"). O conjunto de classes é resolvido uma única vez no startup;
// adicionar uma classe nova não exige mexer no algoritmo do limiter.
type Class string

const (
	ClassDefault       Class = "default"
	ClassAuthenticated Class = "authenticated"
	ClassChat          Class = "chat"
)

// Limit é a cota imutável de uma classe: quantas requisições por janela.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Limits mapeia classe -> cota. Classe desconhecida cai em ClassDefault
// (a resolução fica na camada application, não aqui).
type Limits map[Class]Limit

// CounterStore é a estratégia de armazenamento dos contadores de janela fixa.
//
// Incr precisa ser atômico sob chamadas concorrentes (sem read-then-write):
// se a chave não existe na janela atual, cria com count=1 e expiração igual
// à janela; senão incrementa. Retorna o count pós-incremento e o tempo até
// a janela atual encerrar.
//
// Implementações podem usar Redis (cota global entre instâncias) ou memória
// (deploy de instância única). Falha de infraestrutura deve ser sinalizada
// com ErrStoreUnavailable dentro de um timeout limitado.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, reset time.Duration, err error)
}

// ErrStoreUnavailable indica que o backing store não respondeu a tempo.
// A política do gateway é fail open: a requisição segue sem contagem.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Decision é o resultado efêmero de uma checagem de cota. Não é persistida;
// o adapter HTTP a lê uma única vez para montar os headers da resposta.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int

	// Reset é o tempo até a janela atual encerrar (vira X-RateLimit-Reset
	// e Retry-After quando bloquear).
	Reset time.Duration

	// FailOpen indica que o store estava indisponível e a requisição foi
	// liberada sem contagem. Headers de cota não devem ser emitidos.
	FailOpen bool
}
