// Package api expõe o serviço via HTTP (chi): inscrição, listagem/export
// do admin, health/status/diagnóstico, webhook de deploy e arquivos estáticos.
package api

import (
	"context"
	"time"

	"waitlist-service/internal/deploy"
	"waitlist-service/internal/export"
	"waitlist-service/internal/waitlist"
	"waitlist-service/middleware/ratelimit"
	"waitlist-service/middleware/ratelimit/domain"
)

type Exporter interface {
	Export(ctx context.Context, recs []waitlist.PublicRecord, at time.Time) (export.Result, error)
}

// Deployer dispara o deploy sem esperar o comando terminar.
type Deployer interface {
	Configured() bool
	Start(ctx context.Context) error
	Status() deploy.Status
}

// Settings são os valores de configuração que os handlers precisam.
type Settings struct {
	Env              string
	AdminSecret      string
	DeploySecret     string
	TrustXFF         bool
	CORSOrigins      []string
	StaticDir        string
	RateLimitHeaders bool
	StoreDriver      string
	RateLimitBackend string
	FormVariant      string
}

// Deps são as dependências injetadas por cmd/waitlist. Só Service e
// SubmitLimiter são obrigatórios.
type Deps struct {
	Service       *waitlist.Service
	SubmitLimiter domain.LimiterStore
	AdminLimiter  domain.LimiterStore
	Stats         domain.StatsStore
	Concurrency   *ratelimit.ConcurrencyLimiter
	Exporter      Exporter
	Deployer      Deployer
	RedisPing     func(ctx context.Context) error
	Now           func() time.Time
}

type Handlers struct {
	Settings
	Deps

	startedAt time.Time
}

func NewHandlers(s Settings, d Deps) *Handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handlers{Settings: s, Deps: d, startedAt: d.Now()}
}

func (h *Handlers) dev() bool { return h.Env == "development" }
