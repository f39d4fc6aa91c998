package waitlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"waitlist-service/internal/pkg/logger"
)

const (
	DefaultPingTimeout   = 3 * time.Second
	DefaultNotifyTimeout = 15 * time.Second
)

// Service é o caso de uso da waitlist. Todas as dependências são injetadas.
type Service struct {
	Store     Store
	Validator Validator
	Notifier  Notifier

	PingTimeout   time.Duration
	NotifyTimeout time.Duration

	Now   func() time.Time
	NewID func() string

	notifyWG sync.WaitGroup
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Submit valida, confere a conexão com o banco, rejeita duplicados e grava.
// A pré-checagem de duplicidade é só atalho; a unicidade do Store é quem decide.
func (s *Service) Submit(ctx context.Context, sub Submission) (Record, error) {
	sub, err := s.Validator.Validate(sub)
	if err != nil {
		return Record{}, err
	}

	if err := s.Ping(ctx); err != nil {
		return Record{}, err
	}

	switch _, err := s.Store.FindByEmail(ctx, sub.Email); {
	case err == nil:
		return Record{}, ErrDuplicate
	case !errors.Is(err, ErrNotFound):
		return Record{}, fmt.Errorf("find by email: %w", err)
	}

	rec := Record{
		ID:        s.newID(),
		Email:     sub.Email,
		Name:      sub.Name,
		Company:   sub.Company,
		CreatedAt: s.now(),
		IPAddress: sub.IPAddress,
		UserAgent: sub.UserAgent,
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Record{}, ErrDuplicate
		}
		return Record{}, fmt.Errorf("create: %w", err)
	}

	logger.Info("waitlist signup stored", "id", rec.ID, "email", rec.Email)
	s.notify(rec)
	return rec, nil
}

// Ping checa a conectividade do store com timeout curto; falha vira ErrUnavailable.
func (s *Service) Ping(ctx context.Context) error {
	timeout := s.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Store.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// List devolve a visão pública, mais recentes primeiro.
func (s *Service) List(ctx context.Context) ([]PublicRecord, error) {
	recs, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	// os backends já ordenam; o sort estável garante a ordem para qualquer Store.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })

	out := make([]PublicRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Public())
	}
	return out, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.Store.Count(ctx)
}

// notify roda fora da requisição; falha só gera log.
func (s *Service) notify(rec Record) {
	if s.Notifier == nil {
		return
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Notifier.Welcome(ctx, rec); err != nil {
			logger.Warn("welcome notification failed", "id", rec.ID, "email", rec.Email, "error", err)
		}
	}()
}

// Wait bloqueia até as notificações pendentes terminarem (shutdown e testes).
func (s *Service) Wait() { s.notifyWG.Wait() }
