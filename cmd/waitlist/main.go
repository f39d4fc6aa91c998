package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"waitlist-service/internal/api"
	"waitlist-service/internal/config"
	"waitlist-service/internal/deploy"
	"waitlist-service/internal/export"
	"waitlist-service/internal/notify"
	"waitlist-service/internal/pkg/awsconf"
	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/pkg/retry"
	"waitlist-service/internal/store"
	"waitlist-service/internal/waitlist"
	"waitlist-service/middleware/ratelimit"
	"waitlist-service/middleware/ratelimit/domain"
	"waitlist-service/middleware/ratelimit/infra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))
	logger.SetRedactPII(!cfg.IsDevelopment())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	awsOpts := awsconf.Options{
		Region:          cfg.Store.AWSRegion,
		AccessKeyID:     cfg.Store.AWSAccessKeyID,
		SecretAccessKey: cfg.Store.AWSSecretKey,
	}

	st, err := store.Open(ctx, store.Config{
		Driver:         cfg.Store.Driver,
		DatabaseURL:    cfg.Store.DatabaseURL,
		DynamoTable:    cfg.Store.DynamoTable,
		DynamoEndpoint: cfg.Store.DynamoEndpoint,
		AWS:            awsOpts,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	variant, err := waitlist.ParseVariant(cfg.Form.Variant)
	if err != nil {
		return err
	}
	svc := &waitlist.Service{
		Store:     st,
		Validator: waitlist.Validator{Variant: variant},
	}

	connectStore(ctx, svc, cfg.Store.ConnectAttempts, cfg.Store.ConnectDelay)

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			// segue no ar: o rate limit de inscrição é fail-open.
			logger.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	policy := cfg.RateLimit.Policy()
	var submitLimiter domain.LimiterStore
	if cfg.RateLimit.Backend == "redis" {
		submitLimiter = infra.NewRedisWindowStore(rdb, policy, infra.WithWindowPrefix(cfg.RateLimit.RedisPrefix))
	} else {
		ws := infra.NewWindowStore(policy,
			infra.WithMaxKeys(cfg.RateLimit.MaxKeys),
			infra.WithCleanupEvery(cfg.RateLimit.CleanupEvery),
		)
		ws.StartJanitor(ctx)
		submitLimiter = ws
	}

	adminLimiter := infra.NewTokenBucketStore(cfg.RateLimit.AdminRPS, cfg.RateLimit.AdminBurst)
	adminLimiter.StartJanitor(ctx)

	var stats domain.StatsStore
	if cfg.RateLimit.StatsEnabled {
		if rdb != nil {
			stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.RateLimit.StatsPrefix),
				infra.WithStatsTTL(cfg.RateLimit.StatsTTL),
				infra.WithStatsBucket(cfg.RateLimit.StatsBucket),
				infra.WithStatsTrackKeys(cfg.RateLimit.StatsKeys),
			)
		} else {
			stats = infra.NewMemoryStatsStore(
				infra.WithTrackKeys(cfg.RateLimit.StatsKeys),
				infra.WithMaxTrackedKeys(cfg.RateLimit.MaxKeys),
			)
		}
	}

	deps := api.Deps{
		Service:       svc,
		SubmitLimiter: submitLimiter,
		AdminLimiter:  adminLimiter,
		Stats:         stats,
		Concurrency: ratelimit.NewConcurrencyLimiter(ratelimit.ConcurrencyOptions{
			Max:            cfg.Server.ConcurrencyMax,
			AcquireTimeout: cfg.Server.ConcurrencyTimeout,
		}),
	}
	if rdb != nil {
		deps.RedisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if cfg.Deploy.Command != "" {
		deps.Deployer = deploy.NewRunner(cfg.Deploy.Command, cfg.Deploy.Timeout)
	}

	if cfg.Notify.SESFrom != "" || cfg.Export.Bucket != "" {
		awsCfg, err := awsconf.Load(ctx, awsOpts)
		if err != nil {
			return err
		}
		if cfg.Notify.SESFrom != "" {
			mailer, err := notify.NewMailer(notify.NewClient(awsCfg), cfg.Notify.SESFrom,
				notify.WithSubject(cfg.Notify.SESSubject))
			if err != nil {
				return err
			}
			svc.Notifier = mailer
		}
		if cfg.Export.Bucket != "" {
			deps.Exporter = export.New(export.NewClient(awsCfg), cfg.Export.Bucket, cfg.Export.Prefix)
		}
	}

	h := api.NewHandlers(api.Settings{
		Env:              cfg.Server.Env,
		AdminSecret:      cfg.Admin.Secret,
		DeploySecret:     cfg.Deploy.Secret,
		TrustXFF:         cfg.Server.TrustXFF,
		CORSOrigins:      cfg.Server.CORSOrigins,
		StaticDir:        cfg.Server.StaticDir,
		RateLimitHeaders: cfg.RateLimit.Headers,
		StoreDriver:      cfg.Store.Driver,
		RateLimitBackend: cfg.RateLimit.Backend,
		FormVariant:      cfg.Form.Variant,
	}, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	if cfg.Admin.Secret == "" {
		logger.Warn("ADMIN_SECRET not set: admin routes will answer 500")
	}
	logger.Info("waitlist listening",
		"addr", cfg.Addr(), "env", cfg.Server.Env, "store", cfg.Store.Driver, "form", cfg.Form.Variant)
	logger.Info("rate limit",
		"backend", cfg.RateLimit.Backend, "max", policy.Max, "window", policy.Window.String(),
		"maxKeys", cfg.RateLimit.MaxKeys, "adminRPS", adminLimiter.RPS(), "adminBurst", adminLimiter.Burst(),
		"stats", cfg.RateLimit.StatsEnabled)
	logger.Info("concurrency",
		"max", cfg.Server.ConcurrencyMax, "acquireTimeout", cfg.Server.ConcurrencyTimeout.String())

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if err := serve(ctx, srv, ln, shutdownTimeout); err != nil {
		return err
	}

	// só depois do drain: nenhum Submit em voo pode mais agendar email.
	svc.Wait()
	logger.Info("waitlist stopped")
	return nil
}

// serve atende em ln até ctx ser cancelado e só retorna depois que Shutdown
// terminou de drenar as requisições em voo (ou estourou drain). Os defers de
// run fecham store e Redis depois disso.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, drain time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown did not drain in time", "timeout", drain.String(), "error", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// connectStore tenta o Ping com retry; se todas falharem o serviço sobe
// degradado (escritas 503, /health com storeConnected=false).
func connectStore(ctx context.Context, svc *waitlist.Service, attempts int, delay time.Duration) {
	err := retry.Do(ctx, attempts, delay, svc.Ping, func(attempt int, err error) {
		logger.Warn("store connection failed, retrying",
			"attempt", attempt, "of", attempts, "delay", delay.String(), "error", err)
	})
	if err != nil {
		logger.Error("store unreachable, serving degraded", "attempts", attempts, "error", err)
		return
	}
	logger.Info("store connected")
}
