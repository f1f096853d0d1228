package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"diary-ai-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

var _ domain.WindowStore = (*RedisWindowStore)(nil)

// RedisWindowStore divide a janela entre várias réplicas do gateway.
//
// Cada (chave, segundo) vira uma chave Redis própria, então a "troca de
// janela" é só começar a incrementar outra chave; as antigas expiram sozinhas.
type RedisWindowStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithWindowTTL define por quanto tempo a chave de um segundo sobrevive.
// Precisa ser maior que 1s para tolerar relógios levemente desalinhados.
func WithWindowTTL(d time.Duration) RedisWindowOption {
	return func(s *RedisWindowStore) { s.ttl = d }
}

func NewRedisWindowStore(rdb *redis.Client, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		prefix: "ratelimit:window",
		ttl:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisWindowStore) windowKey(key domain.Key, second int64) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, key, second)
}

// Hit implementa domain.WindowStore com INCR + EXPIRE em uma transação.
func (s *RedisWindowStore) Hit(ctx context.Context, key domain.Key, second int64) (int64, error) {
	k := s.windowKey(key, second)

	pipe := s.rdb.TxPipeline()
	counter := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis window hit: %w", err)
	}
	return counter.Val(), nil
}
