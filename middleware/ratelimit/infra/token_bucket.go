package infra

import (
	"context"
	"sync"
	"time"

	"waitlist-service/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucketStore é um limiter token-bucket (x/time/rate) por chave, com cache
// e limpeza de chaves ociosas. Protege as rotas administrativas contra tentativa
// e erro do segredo compartilhado.
type TokenBucketStore struct {
	mu           sync.Mutex
	entries      map[string]*bucketEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucketStore)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucketStore) { s.idleTTL = d }
}

func WithBucketCleanupEvery(d time.Duration) TokenBucketOption {
	return func(s *TokenBucketStore) { s.cleanupEvery = d }
}

func NewTokenBucketStore(rps float64, burst int, opts ...TokenBucketOption) *TokenBucketStore {
	s := &TokenBucketStore{
		entries:      make(map[string]*bucketEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenBucketStore) RPS() float64 { return float64(s.rps) }
func (s *TokenBucketStore) Burst() int   { return s.burst }

// Take implementa domain.LimiterStore.
func (s *TokenBucketStore) Take(_ context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	lim := s.limiter(string(key), now)

	dec := domain.Decision{Limit: s.burst}
	dec.Allowed = lim.AllowN(now, 1)
	if tokens := int(lim.TokensAt(now)); tokens > 0 {
		dec.Remaining = tokens
	}
	if !dec.Allowed && s.rps > 0 {
		dec.RetryAfter = time.Duration(float64(time.Second) / float64(s.rps))
	}
	return dec, nil
}

func (s *TokenBucketStore) limiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup remove chaves sem uso há mais de idleTTL.
func (s *TokenBucketStore) Cleanup(now time.Time) {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

func (s *TokenBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia a limpeza periódica de chaves ociosas. Pare cancelando o contexto.
func (s *TokenBucketStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, func() { s.Cleanup(time.Now()) })
}
