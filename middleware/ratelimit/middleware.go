package ratelimit

import (
	"math"
	"net/http"
	"time"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/pkg/logger"
	"waitlist-service/middleware/ratelimit/application"
	"waitlist-service/middleware/ratelimit/domain"
)

const DefaultRejectMessage = "Too many requests, please try again later"

type Options struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RejectMessage       string
	RetryAfter          time.Duration
	AddRateLimitHeaders bool

	// FailOpen deixa passar quando o store falha (Redis fora do ar).
	FailOpen bool

	Now func() time.Time
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RejectMessage == "" {
		opts.RejectMessage = DefaultRejectMessage
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
		FailOpen:   opts.FailOpen,
		Now:        opts.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			dec, err := svc.Decide(r.Context(), key)
			if err != nil {
				logger.Warn("rate limit store failed",
					"path", r.URL.Path, "fail_open", opts.FailOpen, "error", err)
			}
			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     key,
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      opts.Now(),
				}); err != nil {
					logger.Debug("rate limit stats not recorded", "error", err)
				}
			}

			if opts.AddRateLimitHeaders && dec.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
				w.Header().Set("X-RateLimit-Reset", formatInt64(dec.ResetAt.Unix()))
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
				logger.Info("request rate limited", "path", r.URL.Path, "retry_after", dec.RetryAfter.String())
				httputil.Error(w, opts.RejectStatus, opts.RejectMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima: nunca anuncia 0s para um bloqueio ativo.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
