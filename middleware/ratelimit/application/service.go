package application

import (
	"context"
	"time"

	"waitlist-service/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.LimiterStore

	// RetryAfter é usado quando o store nega sem sugerir um valor.
	RetryAfter time.Duration

	// FailOpen permite a requisição quando o store falha (ex: Redis fora do ar).
	// O erro é devolvido mesmo assim, para o chamador registrar.
	FailOpen bool

	Now func() time.Time
}

func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	dec, err := s.Store.Take(ctx, key, now())
	if err != nil {
		if s.FailOpen {
			return domain.Decision{Allowed: true}, err
		}
		return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}, err
	}
	if !dec.Allowed && dec.RetryAfter <= 0 {
		dec.RetryAfter = s.RetryAfter
	}
	return dec, nil
}
