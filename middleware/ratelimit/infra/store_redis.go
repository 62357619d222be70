package infra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"chat-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore implementa domain.CounterStore sobre Redis, permitindo que
// múltiplas instâncias do gateway compartilhem uma cota global.
//
// A chave inclui o início da janela, então a virada de janela é automática:
// "<chave>:<windowStart>". O incremento e a expiração vão num único pipeline
// (INCR + EXPIRE NX), sem read-then-write em lugar nenhum.
type RedisStore struct {
	rdb     *redis.Client
	timeout time.Duration
	now     func() time.Time
}

type RedisStoreOption func(*RedisStore)

// WithRedisTimeout limita quanto tempo uma chamada ao Redis pode levar antes
// de ser tratada como ErrStoreUnavailable.
func WithRedisTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.timeout = d }
}

func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		timeout: 300 * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr implementa domain.CounterStore.
//
// O incremento roda desacoplado do cancelamento da requisição original
// (context.WithoutCancel): uma requisição cancelada no meio não pode deixar
// de contar, senão a cota subconta. O timeout próprio do store continua valendo.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	start, reset := windowBounds(s.now(), window)
	windowKey := key + ":" + strconv.FormatInt(start.Unix(), 10)

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(opCtx, windowKey)
	pipe.ExpireNX(opCtx, windowKey, window)
	if _, err := pipe.Exec(opCtx); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return incr.Val(), reset, nil
}
