package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings
// genéricas. Class permite agregar por cota (default/authenticated/chat).
//
// Observação: cuidado com cardinalidade (ex.: salvar Identity/Path sem
// controle pode explodir o número de séries/chaves em uma base como Redis).
type StatsEvent struct {
	Identity string
	Class    Class
	Allowed  bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// Implementações podem armazenar em Redis, memória, etc.
// O middleware deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
