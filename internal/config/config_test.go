package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package.
// These tests share process-global environment variables.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "MTGA Analyzer API", cfg.Server.Title)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowMethods)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowHeaders)
	assert.Equal(t, "https://api.scryfall.com", cfg.Upstream.ScryfallURL)
	assert.Equal(t, 100*time.Millisecond, cfg.Upstream.MinInterval)
	assert.Equal(t, 3, cfg.Upstream.MaxAttempts)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "mtga", cfg.Telemetry.ServiceNamespace)
	assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.ExportInterval)
	assert.False(t, cfg.Telemetry.HostAttributes)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MTGA_SERVER_PORT", "9090")
	t.Setenv("MTGA_CORS_ALLOW_ORIGINS", "https://lotus.example,http://localhost:3000")
	t.Setenv("MTGA_CACHE_BACKEND", "redis")
	t.Setenv("MTGA_UPSTREAM_MIN_INTERVAL", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://lotus.example", "http://localhost:3000"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Upstream.MinInterval)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8088
cors:
  allow_origins:
    - https://app.example.com
  allow_credentials: false
cache:
  backend: postgres
  postgres:
    host: db
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowOrigins)
	assert.False(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, CachePostgres, cfg.Cache.Backend)
	assert.Equal(t, "db", cfg.Cache.Postgres.Host)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvIsolation(t *testing.T) {
	require.Empty(t, os.Getenv("MTGA_SERVER_PORT"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8000},
			CORS: CORSConfig{
				AllowOrigins:     []string{"http://localhost:5173"},
				AllowCredentials: true,
			},
			Upstream: UpstreamConfig{MaxAttempts: 3},
			Cache:    CacheConfig{Backend: CacheMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "empty allow-list",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = nil },
			wantErr: "must not be empty",
		},
		{
			name:    "origin with path",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = []string{"http://localhost:5173/app"} },
			wantErr: "must not carry a path",
		},
		{
			name:    "origin with trailing slash",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = []string{"http://localhost:5173/"} },
			wantErr: "trailing slash",
		},
		{
			name:    "origin without scheme",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = []string{"localhost"} },
			wantErr: "scheme and host required",
		},
		{
			name:    "wildcard with credentials",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = []string{"*"} },
			wantErr: "wildcard origin",
		},
		{
			name: "wildcard without credentials",
			mutate: func(c *Config) {
				c.CORS.AllowOrigins = []string{"*"}
				c.CORS.AllowCredentials = false
			},
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: "cache.backend",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "sample ratio above one",
			mutate:  func(c *Config) { c.Telemetry.SampleRatio = 1.5 },
			wantErr: "sample_ratio",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Upstream.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
