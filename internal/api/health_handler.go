package api

import (
	"context"
	"net/http"
	"time"

	"waitlist-service/internal/deploy"
	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/middleware/ratelimit/domain"
)

const checkTimeout = 2 * time.Second

type HealthResponse struct {
	Status         string `json:"status"` // "ok" ou "degraded"
	StoreConnected bool   `json:"storeConnected"`
}

func (h *Handlers) storeConnected(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := h.Service.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Health sempre responde 200; o corpo indica se o store está acessível.
//
//	GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ok, _ := h.storeConnected(r.Context())
	resp := HealthResponse{Status: "ok", StoreConnected: ok}
	if !ok {
		resp.Status = "degraded"
	}
	httputil.OK(w, resp)
}

type componentStatus struct {
	Driver    string `json:"driver,omitempty"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type rateLimitStatus struct {
	Backend string                     `json:"backend"`
	Max     int                        `json:"max,omitempty"`
	Window  string                     `json:"window,omitempty"`
	Totals  *domain.Counters           `json:"totals,omitempty"`
	Routes  map[string]domain.Counters `json:"routes,omitempty"`
	Clients *int                       `json:"trackedClients,omitempty"`
}

type StatusResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	FormVariant string            `json:"formVariant"`
	StartedAt   time.Time         `json:"startedAt"`
	Uptime      string            `json:"uptime"`
	Timestamp   time.Time         `json:"timestamp"`
	Store       componentStatus   `json:"store"`
	Redis       *componentStatus  `json:"redis,omitempty"`
	RateLimit   rateLimitStatus   `json:"rateLimit"`
	Concurrency *domain.SlotUsage `json:"concurrency,omitempty"`
	Deploy      *deploy.Status    `json:"deploy,omitempty"`
	Features    map[string]bool   `json:"features"`
}

type policyReporter interface {
	Policy() domain.Policy
}

type clientTracker interface {
	TrackedKeys() int
}

// Status é o retrato de diagnóstico do processo.
//
//	GET /api/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	ctx := r.Context()

	store := componentStatus{Driver: h.StoreDriver}
	var err error
	if store.Connected, err = h.storeConnected(ctx); err != nil && h.dev() {
		store.Error = err.Error()
	}

	resp := StatusResponse{
		Status:      "ok",
		Environment: h.Env,
		FormVariant: h.FormVariant,
		StartedAt:   h.startedAt,
		Uptime:      now.Sub(h.startedAt).Round(time.Second).String(),
		Timestamp:   now,
		Store:       store,
		RateLimit:   rateLimitStatus{Backend: h.RateLimitBackend},
		Features: map[string]bool{
			"export":       h.Exporter != nil,
			"deployHook":   h.Deployer != nil && h.Deployer.Configured(),
			"adminEnabled": h.AdminSecret != "",
		},
	}
	if !store.Connected {
		resp.Status = "degraded"
	}

	if pr, ok := h.SubmitLimiter.(policyReporter); ok {
		p := pr.Policy()
		resp.RateLimit.Max = p.Max
		resp.RateLimit.Window = p.Window.String()
	}
	if reader, ok := h.Stats.(domain.StatsReader); ok {
		if totals, err := reader.Totals(ctx); err == nil {
			resp.RateLimit.Totals = &totals
		}
		if routes, err := reader.Routes(ctx); err == nil && len(routes) > 0 {
			resp.RateLimit.Routes = routes
		}
	}
	if ct, ok := h.Stats.(clientTracker); ok {
		n := ct.TrackedKeys()
		resp.RateLimit.Clients = &n
	}

	if h.RedisPing != nil {
		rs := componentStatus{Connected: true}
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := h.RedisPing(pingCtx); err != nil {
			rs.Connected = false
			if h.dev() {
				rs.Error = err.Error()
			}
			resp.Status = "degraded"
		}
		cancel()
		resp.Redis = &rs
	}

	if h.Concurrency != nil {
		u := h.Concurrency.Usage()
		resp.Concurrency = &u
	}
	if h.Deployer != nil && h.Deployer.Configured() {
		ds := h.Deployer.Status()
		if !h.dev() && ds.Last != nil {
			last := *ds.Last
			last.Output = ""
			ds.Last = &last
		}
		resp.Deploy = &ds
	}

	httputil.OK(w, resp)
}

// Test é um eco simples para checar o roteamento.
//
//	GET /api/test
func (h *Handlers) Test(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"message":     "API is working",
		"timestamp":   h.Now(),
		"environment": h.Env,
	})
}

type TestDBResponse struct {
	StoreConnected bool   `json:"storeConnected"`
	RecordCount    *int   `json:"recordCount,omitempty"`
	Error          string `json:"error,omitempty"`
}

// TestDB checa a conexão e conta os registros.
//
//	GET /test-db
func (h *Handlers) TestDB(w http.ResponseWriter, r *http.Request) {
	ok, err := h.storeConnected(r.Context())
	resp := TestDBResponse{StoreConnected: ok}
	if err != nil {
		resp.Error = "Store unavailable"
		if h.dev() {
			resp.Error = err.Error()
		}
		httputil.OK(w, resp)
		return
	}

	n, err := h.Service.Count(r.Context())
	if err != nil {
		resp.Error = "Count failed"
		if h.dev() {
			resp.Error = err.Error()
		}
	} else {
		resp.RecordCount = &n
	}
	httputil.OK(w, resp)
}
