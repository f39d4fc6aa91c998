package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-service/middleware/ratelimit/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.False(t, cfg.IsDevelopment(), "production unless APP_ENV says otherwise")
	assert.Equal(t, EnvProduction, cfg.Server.Env)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.ConnectAttempts)
	assert.Equal(t, 5*time.Second, cfg.Store.ConnectDelay)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 100_000, cfg.RateLimit.MaxKeys)
	assert.Equal(t, "email", cfg.Form.Variant)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
  cors_origins: ["https://a.example"]
rate_limit:
  max: 10
  window: 30m
form:
  variant: full
`), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW", "120")
	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://x.example, https://y.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.Max)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "full", cfg.Form.Variant)
	assert.Equal(t, "s3cret", cfg.Admin.Secret)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_DevelopmentOnlyWhenAsked(t *testing.T) {
	t.Setenv("APP_ENV", "Development")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_InvalidPolicyWrapsDomainError(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":         {"STORE_DRIVER": "mongo"},
		"postgres without dsn":   {"STORE_DRIVER": "postgres"},
		"redis without addr":     {"RATE_LIMIT_BACKEND": "redis"},
		"bad variant":            {"FORM_VARIANT": "wizard"},
		"bad env":                {"APP_ENV": "staging"},
		"deploy without secret":  {"DEPLOY_COMMAND": "make deploy"},
		"non-positive rate max":  {"RATE_LIMIT_MAX": "0"},
		"zero connect attempts":  {"STORE_CONNECT_ATTEMPTS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_RedisBackend(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.RedisEnabled())
}

func TestGetenvDurationDefault(t *testing.T) {
	t.Setenv("D1", "1m30s")
	t.Setenv("D2", "45")
	t.Setenv("D3", "soon")

	assert.Equal(t, 90*time.Second, getenvDurationDefault("D1", 0))
	assert.Equal(t, 45*time.Second, getenvDurationDefault("D2", 0))
	assert.Equal(t, time.Second, getenvDurationDefault("D3", time.Second))
}
