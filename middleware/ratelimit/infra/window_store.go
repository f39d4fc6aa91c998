package infra

import (
	"context"
	"sync"
	"time"

	"waitlist-service/middleware/ratelimit/domain"
)

// WindowStore guarda uma janela fixa por chave em memória.
//
// O mapa é limitado a maxKeys: o janitor remove janelas vencidas e, se o mapa
// continuar cheio quando chega uma chave nova, a janela mais antiga é descartada.
type WindowStore struct {
	mu           sync.Mutex
	policy       domain.Policy
	windows      map[string]*domain.Window
	maxKeys      int
	cleanupEvery time.Duration
	now          func() time.Time
}

type WindowStoreOption func(*WindowStore)

func WithMaxKeys(n int) WindowStoreOption {
	return func(s *WindowStore) { s.maxKeys = n }
}

func WithCleanupEvery(d time.Duration) WindowStoreOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado pelo janitor (testes).
func WithClock(now func() time.Time) WindowStoreOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(policy domain.Policy, opts ...WindowStoreOption) *WindowStore {
	s := &WindowStore{
		policy:       policy,
		windows:      make(map[string]*domain.Window),
		maxKeys:      100_000,
		cleanupEvery: 5 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Policy() domain.Policy { return s.policy }

// Take implementa domain.LimiterStore.
func (s *WindowStore) Take(_ context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	k := string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[k]
	if !ok {
		if s.maxKeys > 0 && len(s.windows) >= s.maxKeys {
			s.sweepLocked(now)
			if len(s.windows) >= s.maxKeys {
				s.evictOldestLocked()
			}
		}
		w = &domain.Window{}
		s.windows[k] = w
	}
	return s.policy.Apply(w, now), nil
}

// Len devolve quantas chaves estão sendo rastreadas.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Cleanup remove as janelas que já venceram em now.
func (s *WindowStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// StartJanitor inicia uma goroutine que limpa janelas vencidas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, func() { s.Cleanup(s.now()) })
}

func (s *WindowStore) sweepLocked(now time.Time) int {
	removed := 0
	for k, w := range s.windows {
		if s.policy.Expired(*w, now) {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

func (s *WindowStore) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, w := range s.windows {
		if !found || w.Start.Before(oldest) {
			oldestKey, oldest, found = k, w.Start, true
		}
	}
	if found {
		delete(s.windows, oldestKey)
	}
}
