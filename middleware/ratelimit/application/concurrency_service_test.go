package application

import (
	"context"
	"testing"
	"time"

	"waitlist-service/middleware/ratelimit/domain"
)

// blockingPool nunca libera vaga: só retorna quando o ctx termina.
type blockingPool struct{}

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}

func (p *blockingPool) Usage() domain.SlotUsage { return domain.SlotUsage{InUse: 1, Capacity: 1} }

type immediatePool struct {
	acquired int
	released int
}

func (p *immediatePool) Acquire(context.Context) (func(), bool) {
	p.acquired++
	return func() { p.released++ }, true
}

func (p *immediatePool) Usage() domain.SlotUsage {
	return domain.SlotUsage{InUse: p.acquired - p.released, Capacity: 10}
}

func TestConcurrencyService_Acquire_AllowsWhenNoPool(t *testing.T) {
	svc := ConcurrencyService{}
	release, ok := svc.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
	if got := svc.Usage(); got != (domain.SlotUsage{}) {
		t.Fatalf("expected zero usage without pool, got %+v", got)
	}
}

func TestConcurrencyService_Acquire_UsesTimeout(t *testing.T) {
	svc := ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	_, ok := svc.Acquire(context.Background())
	if ok {
		t.Fatalf("expected timeout and ok=false")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("acquire did not honour the timeout")
	}
}

func TestConcurrencyService_Acquire_NoTimeoutDelegatesToPool(t *testing.T) {
	pool := &immediatePool{}
	svc := ConcurrencyService{Pool: pool}

	release, ok := svc.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected ok")
	}
	if got := svc.Usage().InUse; got != 1 {
		t.Fatalf("expected 1 slot in use, got %d", got)
	}
	release()
	if got := svc.Usage().InUse; got != 0 {
		t.Fatalf("expected slot released, got %d in use", got)
	}
}
