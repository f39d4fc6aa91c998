// Package config carrega a configuração do serviço: defaults, arquivo YAML
// opcional e, por cima, variáveis de ambiente (.env incluso).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"waitlist-service/middleware/ratelimit/domain"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Admin     AdminConfig     `yaml:"admin"`
	Deploy    DeployConfig    `yaml:"deploy"`
	Form      FormConfig      `yaml:"form"`
	Notify    NotifyConfig    `yaml:"notify"`
	Export    ExportConfig    `yaml:"export"`
}

type ServerConfig struct {
	Env                string        `yaml:"env"`
	Port               int           `yaml:"port"`
	StaticDir          string        `yaml:"static_dir"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	TrustXFF           bool          `yaml:"trust_xff"`
	ConcurrencyMax     int           `yaml:"concurrency_max"`
	ConcurrencyTimeout time.Duration `yaml:"concurrency_timeout"`
	LogLevel           string        `yaml:"log_level"`
}

type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	DatabaseURL     string        `yaml:"database_url"`
	DynamoTable     string        `yaml:"dynamodb_table"`
	DynamoEndpoint  string        `yaml:"dynamodb_endpoint"`
	AWSRegion       string        `yaml:"aws_region"`
	AWSAccessKeyID  string        `yaml:"-"`
	AWSSecretKey    string        `yaml:"-"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectDelay    time.Duration `yaml:"connect_delay"`
}

type RateLimitConfig struct {
	Backend      string        `yaml:"backend"`
	Max          int           `yaml:"max"`
	Window       time.Duration `yaml:"window"`
	MaxKeys      int           `yaml:"max_keys"`
	CleanupEvery time.Duration `yaml:"cleanup_every"`
	Headers      bool          `yaml:"headers"`
	AdminRPS     float64       `yaml:"admin_rps"`
	AdminBurst   int           `yaml:"admin_burst"`
	RedisPrefix  string        `yaml:"redis_prefix"`
	StatsEnabled bool          `yaml:"stats_enabled"`
	StatsPrefix  string        `yaml:"stats_prefix"`
	StatsTTL     time.Duration `yaml:"stats_ttl"`
	StatsBucket  string        `yaml:"stats_bucket"`
	StatsKeys    bool          `yaml:"stats_track_keys"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

type AdminConfig struct {
	Secret string `yaml:"-"`
}

type DeployConfig struct {
	Secret  string        `yaml:"-"`
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

type FormConfig struct {
	Variant string `yaml:"variant"`
}

type NotifyConfig struct {
	SESFrom    string `yaml:"ses_from"`
	SESSubject string `yaml:"ses_subject"`
}

type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

func Default() Config {
	return Config{
		Server: ServerConfig{
			// development só quando pedido: expõe details e desliga a redação de PII.
			Env:                EnvProduction,
			Port:               3000,
			CORSOrigins:        []string{"*"},
			ConcurrencyMax:     100,
			ConcurrencyTimeout: 2 * time.Second,
			LogLevel:           "info",
		},
		Store: StoreConfig{
			Driver:          "memory",
			DynamoTable:     "waitlist-emails",
			AWSRegion:       "us-east-1",
			ConnectAttempts: 5,
			ConnectDelay:    5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Backend:      "memory",
			Max:          domain.DefaultPolicy.Max,
			Window:       domain.DefaultPolicy.Window,
			MaxKeys:      100_000,
			CleanupEvery: 5 * time.Minute,
			AdminRPS:     0.2,
			AdminBurst:   5,
			RedisPrefix:  "waitlist:ratelimit:window",
			StatsPrefix:  "waitlist:ratelimit:stats",
			StatsTTL:     24 * time.Hour,
			StatsBucket:  "minute",
		},
		Deploy: DeployConfig{Timeout: 2 * time.Minute},
		Form:   FormConfig{Variant: "email"},
	}
}

// Policy é a janela fixa do formulário de inscrição.
func (r RateLimitConfig) Policy() domain.Policy {
	return domain.Policy{Max: r.Max, Window: r.Window}
}

func (c Config) IsDevelopment() bool { return c.Server.Env == EnvDevelopment }

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }

// Load: defaults → YAML (se path existir) → .env → variáveis de ambiente → Validate.
func Load(path string) (Config, error) {
	// .env é opcional; em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Env = strings.ToLower(getenvDefault("APP_ENV", s.Env))
	s.Port = getenvIntDefault("PORT", s.Port)
	s.StaticDir = getenvDefault("STATIC_DIR", s.StaticDir)
	s.CORSOrigins = getenvListDefault("CORS_ORIGINS", s.CORSOrigins)
	s.TrustXFF = getenvBoolDefault("TRUST_XFF", s.TrustXFF)
	s.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", s.ConcurrencyMax)
	s.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", s.ConcurrencyTimeout)
	s.LogLevel = getenvDefault("LOG_LEVEL", s.LogLevel)

	st := &cfg.Store
	st.Driver = strings.ToLower(getenvDefault("STORE_DRIVER", st.Driver))
	st.DatabaseURL = getenvDefault("DATABASE_URL", st.DatabaseURL)
	st.DynamoTable = getenvDefault("DYNAMODB_TABLE", st.DynamoTable)
	st.DynamoEndpoint = getenvDefault("DYNAMODB_ENDPOINT", st.DynamoEndpoint)
	st.AWSRegion = getenvDefault("AWS_REGION", st.AWSRegion)
	st.AWSAccessKeyID = getenvDefault("AWS_ACCESS_KEY_ID", st.AWSAccessKeyID)
	st.AWSSecretKey = getenvDefault("AWS_SECRET_ACCESS_KEY", st.AWSSecretKey)
	st.ConnectAttempts = getenvIntDefault("STORE_CONNECT_ATTEMPTS", st.ConnectAttempts)
	st.ConnectDelay = getenvDurationDefault("STORE_CONNECT_DELAY", st.ConnectDelay)

	rl := &cfg.RateLimit
	rl.Backend = strings.ToLower(getenvDefault("RATE_LIMIT_BACKEND", rl.Backend))
	rl.Max = getenvIntDefault("RATE_LIMIT_MAX", rl.Max)
	rl.Window = getenvDurationDefault("RATE_LIMIT_WINDOW", rl.Window)
	rl.MaxKeys = getenvIntDefault("RATE_LIMIT_MAX_KEYS", rl.MaxKeys)
	rl.CleanupEvery = getenvDurationDefault("RATE_LIMIT_CLEANUP_EVERY", rl.CleanupEvery)
	rl.Headers = getenvBoolDefault("RATE_LIMIT_HEADERS", rl.Headers)
	rl.AdminRPS = getenvFloatDefault("ADMIN_RATE_RPS", rl.AdminRPS)
	rl.AdminBurst = getenvIntDefault("ADMIN_RATE_BURST", rl.AdminBurst)
	rl.RedisPrefix = getenvDefault("RATE_LIMIT_REDIS_PREFIX", rl.RedisPrefix)
	rl.StatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", rl.StatsEnabled)
	rl.StatsPrefix = getenvDefault("RATE_STATS_PREFIX", rl.StatsPrefix)
	rl.StatsTTL = getenvDurationDefault("RATE_STATS_TTL", rl.StatsTTL)
	rl.StatsBucket = strings.ToLower(getenvDefault("RATE_STATS_BUCKET", rl.StatsBucket))
	rl.StatsKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", rl.StatsKeys)

	r := &cfg.Redis
	r.Addr = getenvDefault("REDIS_ADDR", r.Addr)
	r.Password = getenvDefault("REDIS_PASSWORD", r.Password)
	r.DB = getenvIntDefault("REDIS_DB", r.DB)

	cfg.Admin.Secret = getenvDefault("ADMIN_SECRET", cfg.Admin.Secret)

	d := &cfg.Deploy
	d.Secret = getenvDefault("DEPLOY_SECRET", d.Secret)
	d.Command = getenvDefault("DEPLOY_COMMAND", d.Command)
	d.Timeout = getenvDurationDefault("DEPLOY_TIMEOUT", d.Timeout)

	cfg.Form.Variant = strings.ToLower(getenvDefault("FORM_VARIANT", cfg.Form.Variant))

	cfg.Notify.SESFrom = getenvDefault("SES_FROM", cfg.Notify.SESFrom)
	cfg.Notify.SESSubject = getenvDefault("SES_SUBJECT", cfg.Notify.SESSubject)

	cfg.Export.Bucket = getenvDefault("EXPORT_BUCKET", cfg.Export.Bucket)
	cfg.Export.Prefix = getenvDefault("EXPORT_PREFIX", cfg.Export.Prefix)
}

// RedisEnabled indica se algum componente usa o Redis: o backend de janela
// ou as estatísticas (que caem para memória sem REDIS_ADDR).
func (c Config) RedisEnabled() bool {
	return c.RateLimit.Backend == "redis" || (c.RateLimit.StatsEnabled && c.Redis.Addr != "")
}

func (c Config) Validate() error {
	var errs []error
	switch c.Server.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development or production, got %q", c.Server.Env))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	if c.Server.ConcurrencyMax < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}

	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case "dynamodb":
		if strings.TrimSpace(c.Store.DynamoTable) == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required when STORE_DRIVER=dynamodb"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Store.ConnectAttempts < 1 {
		errs = append(errs, errors.New("STORE_CONNECT_ATTEMPTS must be >= 1"))
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend))
	}
	if err := c.RateLimit.Policy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX/RATE_LIMIT_WINDOW: %w", err))
	}
	if c.RateLimit.MaxKeys <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_KEYS must be > 0"))
	}
	switch c.RateLimit.StatsBucket {
	case "", "minute", "none":
	default:
		errs = append(errs, fmt.Errorf("RATE_STATS_BUCKET must be minute or none, got %q", c.RateLimit.StatsBucket))
	}
	if c.RateLimit.AdminRPS <= 0 || c.RateLimit.AdminBurst <= 0 {
		errs = append(errs, errors.New("ADMIN_RATE_RPS and ADMIN_RATE_BURST must be > 0"))
	}

	switch c.Form.Variant {
	case "email", "full":
	default:
		errs = append(errs, fmt.Errorf("FORM_VARIANT must be email or full, got %q", c.Form.Variant))
	}
	if c.Deploy.Command != "" && c.Deploy.Secret == "" {
		errs = append(errs, errors.New("DEPLOY_SECRET is required when DEPLOY_COMMAND is set"))
	}

	return errors.Join(errs...)
}
