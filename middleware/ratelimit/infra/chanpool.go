package infra

import (
	"context"

	"waitlist-service/middleware/ratelimit/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool baseado em channel com capacidade `max`.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	// vaga livre tem prioridade sobre ctx já cancelado
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	default:
	}

	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *chanPool) Usage() domain.SlotUsage {
	return domain.SlotUsage{InUse: len(p.sem), Capacity: cap(p.sem)}
}
