package infra

import (
	"context"
	"maps"
	"sync"
	"time"

	"waitlist-service/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda os contadores no processo. Totais e rotas não
// expiram; por cliente só conta com trackKeys ligado, e no máximo maxKeys
// clientes (o visto há mais tempo sai para dar lugar ao novo).
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   domain.Counters
	byRoute map[string]domain.Counters
	byKey   map[domain.Key]*clientCounters

	trackKeys bool
	maxKeys   int
}

type clientCounters struct {
	domain.Counters
	seen time.Time
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func WithMaxTrackedKeys(n int) MemoryStatsOption {
	return func(s *MemoryStatsStore) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]domain.Counters),
		byKey:   make(map[domain.Key]*clientCounters),
		maxKeys: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := routeName(ev.Method, ev.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = s.total.Add(ev.Allowed)
	if route != "" {
		s.byRoute[route] = s.byRoute[route].Add(ev.Allowed)
	}
	if s.trackKeys && ev.Key != "" {
		s.trackLocked(ev)
	}
	return nil
}

func (s *MemoryStatsStore) trackLocked(ev domain.StatsEvent) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	c, ok := s.byKey[ev.Key]
	if !ok {
		if len(s.byKey) >= s.maxKeys {
			s.evictStalestLocked()
		}
		c = &clientCounters{}
		s.byKey[ev.Key] = c
	}
	c.Counters = c.Counters.Add(ev.Allowed)
	c.seen = at
}

func (s *MemoryStatsStore) evictStalestLocked() {
	var (
		stalest domain.Key
		seen    time.Time
		found   bool
	)
	for k, c := range s.byKey {
		if !found || c.seen.Before(seen) {
			stalest, seen, found = k, c.seen, true
		}
	}
	if found {
		delete(s.byKey, stalest)
	}
}

func (s *MemoryStatsStore) Totals(context.Context) (domain.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}

func (s *MemoryStatsStore) Routes(context.Context) (map[string]domain.Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byRoute), nil
}

// TrackedKeys é o número de clientes rastreados agora (no máximo maxKeys).
func (s *MemoryStatsStore) TrackedKeys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}
