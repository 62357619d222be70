package infra

import (
	"context"
	"sync"
	"time"

	"chat-gateway/middleware/ratelimit/domain"
)

// MemoryStore é um domain.CounterStore em memória para deploys de instância
// única: um mapa chave->contador guardado por um único mutex, com limpeza
// periódica das janelas encerradas.
//
// Como o mutex cobre a leitura e a escrita do contador, o incremento é
// atômico também sob concorrência local (sem updates perdidos).
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[string]*counterEntry
	now          func() time.Time
	cleanupEvery time.Duration
}

type counterEntry struct {
	count       int64
	windowStart time.Time
	window      time.Duration
}

type MemoryStoreOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithMemoryCleanupEvery(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:      make(map[string]*counterEntry),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.CounterStore = (*MemoryStore)(nil)

// Incr implementa domain.CounterStore. Nunca falha: memória local não fica
// "indisponível". Quando a janela da entrada já encerrou, o contador
// recomeça do zero na janela corrente.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	start, reset := windowBounds(s.now(), window)

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !ent.windowStart.Equal(start) {
		ent = &counterEntry{windowStart: start, window: window}
		s.entries[key] = ent
	}
	ent.count++

	return ent.count, reset, nil
}

// Cleanup remove entradas cuja janela já encerrou.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.windowStart.Add(ent.window).Before(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa janelas encerradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem acoplar
// a assinatura do janitor ao pacote context.
type DoneContext interface {
	Done() <-chan struct{}
}
