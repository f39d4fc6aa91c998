package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"waitlist-service/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// windowScript aplica a mesma regra de domain.Policy.Apply atomicamente.
// KEYS[1] = hash {count, start}; ARGV = max, window(ms), now(ms).
// Retorna {allowed, count, start}.
var windowScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local start = tonumber(redis.call('HGET', KEYS[1], 'start') or '0')
if count == 0 or now - start >= window then
  redis.call('HSET', KEYS[1], 'count', 1, 'start', ARGV[3])
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return {1, 1, now}
end
if count >= max then
  return {0, count, start}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, start}
`)

// RedisWindowStore compartilha as janelas entre réplicas. Cada chave expira
// sozinha (PEXPIRE = janela), então não há crescimento sem limite.
type RedisWindowStore struct {
	rdb    redis.Scripter
	policy domain.Policy
	prefix string
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisWindowStore(rdb redis.Scripter, policy domain.Policy, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		policy: policy,
		prefix: "ratelimit:window",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisWindowStore) Policy() domain.Policy { return s.policy }

// Take implementa domain.LimiterStore.
func (s *RedisWindowStore) Take(ctx context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	res, err := windowScript.Run(ctx, s.rdb,
		[]string{s.prefix + ":" + string(key)},
		s.policy.Max, s.policy.Window.Milliseconds(), now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis window: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis window: unexpected reply %v", res)
	}

	w := domain.Window{Count: int(res[1]), Start: time.UnixMilli(res[2])}
	return s.policy.Decision(res[0] == 1, w, now), nil
}
