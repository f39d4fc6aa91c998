package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"waitlist-service/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

const (
	bucketMinute = "minute"
	bucketNone   = "none"
)

// RedisStatsStore grava as decisões do limitador em hashes do Redis.
//
// Layout das chaves (prefix padrão "waitlist:ratelimit:stats"):
//
//	<prefix>:total                 allowed/denied cumulativos, sem expiração
//	<prefix>:route                 "<METHOD> <path>:allowed|denied"
//	<prefix>:minute:200601021504   série por minuto, expira com ttl
//	<prefix>:key:<client>          por cliente, só com trackKeys, expira com ttl
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix    string
	ttl       time.Duration
	bucket    string
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket aceita "minute" ou "none"; vazio mantém o padrão.
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if b := strings.ToLower(strings.TrimSpace(bucket)); b != "" {
			s.bucket = b
		}
	}
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "waitlist:ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: bucketMinute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := outcome(ev.Allowed)
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.key("total"), field, 1)

	if route := routeName(ev.Method, ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.key("route"), route+":"+field, 1)
	}

	if s.bucket == bucketMinute {
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		s.incrExpiring(ctx, pipe, s.key("minute", at.UTC().Format("200601021504")), field)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			s.incrExpiring(ctx, pipe, s.key("key", k), field)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis stats record: %w", err)
	}
	return nil
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Totals implementa domain.StatsReader lendo o hash cumulativo.
func (s *RedisStatsStore) Totals(ctx context.Context) (domain.Counters, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key("total")).Result()
	if err != nil {
		return domain.Counters{}, fmt.Errorf("redis stats totals: %w", err)
	}
	return domain.Counters{
		Allowed: parseCount(vals[outcome(true)]),
		Denied:  parseCount(vals[outcome(false)]),
	}, nil
}

// Routes implementa domain.StatsReader desmontando os campos "<rota>:<resultado>".
func (s *RedisStatsStore) Routes(ctx context.Context) (map[string]domain.Counters, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key("route")).Result()
	if err != nil {
		return nil, fmt.Errorf("redis stats routes: %w", err)
	}
	out := make(map[string]domain.Counters, len(vals)/2+1)
	for field, raw := range vals {
		i := strings.LastIndexByte(field, ':')
		if i <= 0 {
			continue
		}
		route, result := field[:i], field[i+1:]
		c := out[route]
		switch result {
		case outcome(true):
			c.Allowed += parseCount(raw)
		case outcome(false):
			c.Denied += parseCount(raw)
		default:
			continue
		}
		out[route] = c
	}
	return out, nil
}

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func routeName(method, path string) string {
	return strings.TrimSpace(strings.TrimSpace(method) + " " + strings.TrimSpace(path))
}

func parseCount(raw string) int64 {
	n, _ := strconv.ParseInt(raw, 10, 64)
	return n
}
