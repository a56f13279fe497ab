package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mtga-analyzer/backend/internal/api"
	"mtga-analyzer/backend/internal/cache"
	"mtga-analyzer/backend/internal/catalog"
	"mtga-analyzer/backend/internal/clients"
	"mtga-analyzer/backend/internal/config"
	"mtga-analyzer/backend/internal/health"
	"mtga-analyzer/backend/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	metrics      *telemetry.Metrics
	checker      *health.Checker
	router       *api.Router
	closers      []io.Closer
}

// cacheBackend is what every cache implementation provides.
type cacheBackend interface {
	catalog.Cache
	health.Prober
	io.Closer
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Creates the Prometheus registry when metrics are enabled
//  3. Creates the upstream clients and the selected cache backend
//  4. Creates the catalog service and the health checker
//  5. Creates the HTTP router
func buildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// When OTLPEndpoint is empty, telemetry is disabled entirely; this avoids
	// the SDK's periodic-reader noise when no collector is running locally.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(ctx, cfg.Telemetry)
		if err != nil {
			slog.Warn("OTEL provider init failed, telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	if cfg.Telemetry.MetricsEnabled {
		app.metrics = telemetry.NewMetrics()
	}

	httpClient := clients.NewHTTPClient(cfg.Upstream.Timeout)
	scryfall := clients.NewScryfallClient(cfg.Upstream, httpClient, app.metrics)
	draft := clients.NewDraftClient(cfg.Upstream, httpClient, app.metrics)

	backend, err := newCacheBackend(cfg.Cache)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, backend)

	cacheComponent := health.Component{Name: "cache", Prober: backend}
	if p, ok := backend.(health.Preparer); ok {
		cacheComponent.Preparer = p
	}

	app.checker = health.New(
		cacheComponent,
		health.Component{Name: "scryfall", Prober: scryfall},
		health.Component{Name: "draft-assistant", Prober: draft},
	)

	svc := catalog.New(scryfall, draft, backend, catalog.Options{
		DefaultImageVersion: cfg.Upstream.ImageVersion,
		Metrics:             app.metrics,
	})

	app.router = api.NewRouter(svc, app.checker, api.Options{
		Title:       cfg.Server.Title,
		ServiceName: cfg.Telemetry.ServiceName,
		CORS:        api.PolicyFromConfig(cfg.CORS),
		Metrics:     app.metrics,
		Logger:      slog.Default(),
	})

	slog.Info("application built",
		"title", cfg.Server.Title,
		"cache_backend", cfg.Cache.Backend,
		"allow_origins", cfg.CORS.AllowOrigins,
		"metrics", app.metrics != nil,
	)
	return app, nil
}

// newCacheBackend selects the card cache named by cfg.Backend. Remote
// backends get their own circuit breaker.
func newCacheBackend(cfg config.CacheConfig) (cacheBackend, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemory(cfg.TTL, cfg.Capacity), nil
	case config.CacheRedis:
		return clients.NewRedisCache(cfg.Redis, cfg.TTL, clients.NewCircuitBreaker("redis")), nil
	case config.CachePostgres:
		return clients.NewPostgresCache(cfg.Postgres, cfg.TTL, clients.NewCircuitBreaker("postgres")), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Close releases the cache backend and flushes telemetry.
func (a *AppContext) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("OTEL shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
