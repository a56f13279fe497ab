package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backend identifiers accepted in cache.backend.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config is the root configuration for the analyzer backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Title           string        `mapstructure:"title"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig mirrors the cross-origin options of the front-end contract.
// A "*" entry in AllowMethods or AllowHeaders means every verb or header.
type CORSConfig struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	MaxAge           time.Duration `mapstructure:"max_age"`
	Debug            bool          `mapstructure:"debug"`
}

// TelemetryConfig covers logging, Prometheus metrics and OTLP export.
// SampleRatio is the fraction of root traces kept; parent decisions win.
type TelemetryConfig struct {
	OTLPEndpoint     string        `mapstructure:"otlp_endpoint"`
	OTLPInsecure     bool          `mapstructure:"otlp_insecure"`
	ServiceName      string        `mapstructure:"service_name"`
	ServiceNamespace string        `mapstructure:"service_namespace"`
	SampleRatio      float64       `mapstructure:"sample_ratio"`
	ExportInterval   time.Duration `mapstructure:"export_interval"`
	HostAttributes   bool          `mapstructure:"host_attributes"`
	LogLevel         string        `mapstructure:"log_level"`
	MetricsEnabled   bool          `mapstructure:"metrics_enabled"`
}

type UpstreamConfig struct {
	ScryfallURL       string        `mapstructure:"scryfall_url"`
	DraftURL          string        `mapstructure:"draft_url"`
	MinInterval       time.Duration `mapstructure:"min_interval"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	DefaultRetryAfter time.Duration `mapstructure:"default_retry_after"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	ImageVersion      string        `mapstructure:"image_version"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type CacheConfig struct {
	Backend  string         `mapstructure:"backend"`
	TTL      time.Duration  `mapstructure:"ttl"`
	Capacity uint64         `mapstructure:"capacity"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the MTGA_ prefix (e.g. MTGA_SERVER_PORT).
// List values such as MTGA_CORS_ALLOW_ORIGINS are comma separated.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MTGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the invariants the server relies on at construction time.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if len(c.CORS.AllowOrigins) == 0 {
		errs = append(errs, errors.New("cors.allow_origins must not be empty"))
	}
	for _, o := range c.CORS.AllowOrigins {
		if o == "*" {
			if c.CORS.AllowCredentials {
				errs = append(errs, errors.New("cors: wildcard origin cannot be combined with allow_credentials"))
			}
			continue
		}
		if err := validateOrigin(o); err != nil {
			errs = append(errs, err)
		}
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CachePostgres:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, redis, postgres", c.Cache.Backend))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio %v must be within [0, 1]", c.Telemetry.SampleRatio))
	}

	if c.Upstream.MaxAttempts < 1 {
		errs = append(errs, errors.New("upstream.max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

// validateOrigin accepts scheme://host[:port] with no path, query or fragment.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("cors origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("cors origin %q: scheme and host required", origin)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return fmt.Errorf("cors origin %q: must not carry a path, query, fragment or userinfo", origin)
	}
	if strings.HasSuffix(origin, "/") {
		return fmt.Errorf("cors origin %q: trailing slash never matches a browser Origin header", origin)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.title", "MTGA Analyzer API")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.allow_methods", []string{"*"})
	v.SetDefault("cors.allow_headers", []string{"*"})
	v.SetDefault("cors.max_age", 600*time.Second)
	v.SetDefault("cors.debug", false)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "mtga-analyzer")
	v.SetDefault("telemetry.service_namespace", "mtga")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 10*time.Second)
	v.SetDefault("telemetry.host_attributes", false)
	v.SetDefault("telemetry.log_level", "info")
	v.SetDefault("telemetry.metrics_enabled", true)

	v.SetDefault("upstream.scryfall_url", "https://api.scryfall.com")
	v.SetDefault("upstream.draft_url", "https://mtgdraftassistant.onrender.com")
	v.SetDefault("upstream.min_interval", 100*time.Millisecond)
	v.SetDefault("upstream.max_attempts", 3)
	v.SetDefault("upstream.default_retry_after", time.Second)
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_body_bytes", 16<<20)
	v.SetDefault("upstream.image_version", "png")
	v.SetDefault("upstream.user_agent", "mtga-analyzer/0.1")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.capacity", 10000)

	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "mtga:card:")

	v.SetDefault("cache.postgres.host", "localhost")
	v.SetDefault("cache.postgres.port", 5432)
	v.SetDefault("cache.postgres.user", "mtga")
	v.SetDefault("cache.postgres.db", "mtga")
	v.SetDefault("cache.postgres.ssl_mode", "disable")
	v.SetDefault("cache.postgres.max_conns", 10)
}
