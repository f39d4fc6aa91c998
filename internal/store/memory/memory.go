// Package memory é o backend de desenvolvimento: tudo em um map protegido por mutex.
package memory

import (
	"context"
	"sort"
	"sync"

	"waitlist-service/internal/waitlist"
)

type Store struct {
	mu      sync.Mutex
	byEmail map[string]waitlist.Record
	order   []string
}

func New() *Store {
	return &Store{byEmail: make(map[string]waitlist.Record)}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) FindByEmail(_ context.Context, email string) (waitlist.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byEmail[email]
	if !ok {
		return waitlist.Record{}, waitlist.ErrNotFound
	}
	return rec, nil
}

// Create checa e insere sob o mesmo lock: a unicidade do email vale mesmo
// com Submits concorrentes.
func (s *Store) Create(_ context.Context, rec waitlist.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[rec.Email]; ok {
		return waitlist.ErrDuplicate
	}
	s.byEmail[rec.Email] = rec
	s.order = append(s.order, rec.Email)
	return nil
}

// List ordena por CreatedAt desc; empate fica com o inserido por último.
func (s *Store) List(context.Context) ([]waitlist.Record, error) {
	s.mu.Lock()
	out := make([]waitlist.Record, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byEmail[s.order[i]])
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail), nil
}

func (s *Store) Close() error { return nil }
