package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"diary-ai-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

var _ domain.StatsStore = (*RedisStatsStore)(nil)

// recordScript aplica um evento de uma vez só, para que o pico nunca regrida
// entre réplicas.
//
// KEYS: total, route, bucket, client
// ARGV: field (allowed|denied), count, ttl em segundos, campo da rota,
// usa bucket (1|0), usa client (1|0)
var recordScript = redis.NewScript(`
local function bump(key, ttl)
  redis.call('HINCRBY', key, ARGV[1], 1)
  local peak = tonumber(redis.call('HGET', key, 'peak_count') or '0')
  if tonumber(ARGV[2]) > peak then
    redis.call('HSET', key, 'peak_count', ARGV[2])
  end
  if ttl > 0 then
    redis.call('EXPIRE', key, ttl)
  end
end

bump(KEYS[1], 0)
if ARGV[4] ~= '' then
  redis.call('HINCRBY', KEYS[2], ARGV[4] .. '|' .. ARGV[1], 1)
end
local ttl = tonumber(ARGV[3])
if ARGV[5] == '1' then bump(KEYS[3], ttl) end
if ARGV[6] == '1' then bump(KEYS[4], ttl) end
return 1
`)

// RedisStatsStore guarda os contadores de admissão em hashes Redis, somados
// entre todas as réplicas:
//
//	<prefix>:total                 allowed, denied, peak_count (não expira)
//	<prefix>:minute:<yyyymmddhhmm> allowed, denied, peak_count (com TTL)
//	<prefix>:route                 "<METHOD> <path>|allowed" e "|denied"
//	<prefix>:key:<client>          allowed, denied, peak_count (opcional, com TTL)
type RedisStatsStore struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	perMinute bool
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket liga ("minute") ou desliga ("none") os hashes por minuto.
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.perMinute = strings.ToLower(strings.TrimSpace(bucket)) != "none"
	}
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    "ratelimit:stats",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}
	route := strings.TrimSpace(ev.Method + " " + ev.Path)
	client := strings.TrimSpace(string(ev.Key))

	keys := []string{
		s.prefix + ":total",
		s.prefix + ":route",
		s.prefix + ":minute:" + at.UTC().Format("200601021504"),
		s.prefix + ":key:" + client,
	}
	args := []any{
		field,
		ev.Count,
		int64(s.ttl / time.Second),
		route,
		flag(s.perMinute),
		flag(s.trackKeys && client != ""),
	}
	if err := recordScript.Run(ctx, s.rdb, keys, args...).Err(); err != nil {
		return fmt.Errorf("redis stats record: %w", err)
	}
	return nil
}

var _ StatsReader = (*RedisStatsStore)(nil)

// Read lê os totais e as rotas. Contadores por cliente ficam de fora:
// listá-los exigiria SCAN sobre todas as chaves.
func (s *RedisStatsStore) Read(ctx context.Context) (Snapshot, error) {
	pipe := s.rdb.Pipeline()
	totalCmd := pipe.HGetAll(ctx, s.prefix+":total")
	routeCmd := pipe.HGetAll(ctx, s.prefix+":route")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Snapshot{}, fmt.Errorf("redis stats snapshot: %w", err)
	}

	total := totalCmd.Val()
	out := Snapshot{
		Total:     Counters{Allowed: parseInt(total["allowed"]), Denied: parseInt(total["denied"])},
		ByRoute:   make(map[string]Counters),
		PeakCount: parseInt(total["peak_count"]),
	}
	for f, v := range routeCmd.Val() {
		i := strings.LastIndexByte(f, '|')
		if i < 0 {
			continue
		}
		c := out.ByRoute[f[:i]]
		switch f[i+1:] {
		case "allowed":
			c.Allowed = parseInt(v)
		case "denied":
			c.Denied = parseInt(v)
		}
		out.ByRoute[f[:i]] = c
	}
	return out, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
