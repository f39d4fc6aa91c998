package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"waitlist-service/internal/store/memory"
	"waitlist-service/internal/waitlist"
	"waitlist-service/middleware/ratelimit/domain"
	"waitlist-service/middleware/ratelimit/infra"
)

const adminSecret = "admin-s3cret"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// downStore simula o banco fora do ar.
type downStore struct{ *memory.Store }

func (downStore) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

type testEnv struct {
	t     *testing.T
	clock *clock
	store waitlist.Store
	stats *infra.MemoryStatsStore
	h     *Handlers
	srv   http.Handler
}

type envOption func(*Settings, *Deps)

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	c := &clock{t: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)}

	store := waitlist.Store(memory.New())
	svc := &waitlist.Service{Store: store, Now: c.Now}
	stats := infra.NewMemoryStatsStore()

	s := Settings{
		Env:              "production",
		AdminSecret:      adminSecret,
		StoreDriver:      "memory",
		RateLimitBackend: "memory",
		FormVariant:      "email",
	}
	d := Deps{
		Service:       svc,
		SubmitLimiter: infra.NewWindowStore(domain.DefaultPolicy),
		AdminLimiter:  infra.NewTokenBucketStore(1000, 1000),
		Stats:         stats,
		Now:           c.Now,
	}
	for _, o := range opts {
		o(&s, &d)
	}

	h := NewHandlers(s, d)
	return &testEnv{t: t, clock: c, store: d.Service.Store, stats: stats, h: h, srv: h.Routes()}
}

func withStore(st waitlist.Store) envOption {
	return func(_ *Settings, d *Deps) { d.Service.Store = st }
}

type reqOpt func(*http.Request)

func from(ip string) reqOpt { return func(r *http.Request) { r.RemoteAddr = ip + ":40000" } }

func header(k, v string) reqOpt { return func(r *http.Request) { r.Header.Set(k, v) } }

func (e *testEnv) do(method, path, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	r.RemoteAddr = "203.0.113.7:40000"
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(r)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func (e *testEnv) submit(email string, opts ...reqOpt) *httptest.ResponseRecorder {
	e.t.Helper()
	b, err := json.Marshal(map[string]string{"email": email})
	require.NoError(e.t, err)
	return e.do(http.MethodPost, "/api/waitlist", string(b), opts...)
}

func (e *testEnv) listAsAdmin() []map[string]any {
	e.t.Helper()
	w := e.do(http.MethodGet, "/api/admin/emails", "", header("Authorization", adminSecret))
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var out []map[string]any
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func infraTokenBucket(rps float64, burst int) domain.LimiterStore {
	return infra.NewTokenBucketStore(rps, burst)
}
