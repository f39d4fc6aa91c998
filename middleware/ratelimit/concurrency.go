package ratelimit

import (
	"net/http"
	"time"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/middleware/ratelimit/application"
	"waitlist-service/middleware/ratelimit/domain"
	"waitlist-service/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyLimiter limita requisições simultâneas e expõe a ocupação
// atual (usada pelo /api/status).
type ConcurrencyLimiter struct {
	svc          application.ConcurrencyService
	rejectStatus int
}

func NewConcurrencyLimiter(opts ConcurrencyOptions) *ConcurrencyLimiter {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	l := &ConcurrencyLimiter{rejectStatus: opts.RejectStatus}
	// Max <= 0 desliga o limite (pool nil).
	if opts.Max > 0 {
		l.svc = application.ConcurrencyService{
			Pool:           infra.NewChanPool(opts.Max),
			AcquireTimeout: opts.AcquireTimeout,
		}
	}
	return l
}

func (l *ConcurrencyLimiter) Usage() domain.SlotUsage { return l.svc.Usage() }

func (l *ConcurrencyLimiter) Handler(next http.Handler) http.Handler {
	if l.svc.Pool == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, ok := l.svc.Acquire(r.Context())
		if !ok {
			httputil.Error(w, l.rejectStatus, "Server busy, please retry")
			return
		}
		defer release()

		next.ServeHTTP(w, r)
	})
}
