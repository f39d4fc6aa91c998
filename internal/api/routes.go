package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/pkg/logger"
	"waitlist-service/middleware/ratelimit"
)

// Routes monta o router. RealIP só entra com TRUST_XFF: sem proxy confiável,
// a chave do rate limit é o RemoteAddr da conexão.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.TrustXFF {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Slog().Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	origins := h.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	if h.Concurrency != nil {
		r.Use(h.Concurrency.Handler)
	}

	clientKey := func(r *http.Request) string { return ratelimit.ClientIP(r, false) }

	submitLimit := ratelimit.Middleware(ratelimit.Options{
		Store:               h.SubmitLimiter,
		Stats:               h.Stats,
		KeyFn:               clientKey,
		AddRateLimitHeaders: h.RateLimitHeaders,
		FailOpen:            true,
		Now:                 h.Now,
	})
	adminGuard := ratelimit.Middleware(ratelimit.Options{
		Store:         h.AdminLimiter,
		KeyFn:         clientKey,
		RejectMessage: "Too many attempts, please slow down",
		Now:           h.Now,
	})

	r.Get("/health", h.Health)
	r.Get("/test-db", h.TestDB)

	r.Route("/api", func(r chi.Router) {
		r.With(submitLimit).Post("/waitlist", h.Submit)

		r.Get("/status", h.Status)
		r.Get("/test", h.Test)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminGuard)
			r.Use(h.requireAdmin)
			r.Get("/emails", h.ListEmails)
			r.Post("/export", h.Export)
		})

		r.With(adminGuard).Post("/deploy-hook", h.DeployHook)
	})

	if h.StaticDir != "" {
		r.Handle("/*", staticHandler(h.StaticDir))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// staticHandler serve o front do formulário; rotas de API nunca caem aqui.
func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			httputil.Error(w, http.StatusNotFound, "Not found")
			return
		}
		fs.ServeHTTP(w, r)
	})
}
