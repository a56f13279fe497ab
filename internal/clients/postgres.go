package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"mtga-analyzer/backend/internal/config"
	"mtga-analyzer/backend/internal/health"
)

const postgresProbeName = "postgres"

const (
	createCardCacheSQL = `CREATE TABLE IF NOT EXISTS card_cache (
	key       TEXT PRIMARY KEY,
	payload   BYTEA NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectCardSQL = `SELECT payload FROM card_cache WHERE key = $1 AND stored_at > $2`
	upsertCardSQL = `INSERT INTO card_cache (key, payload, stored_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`
	tableExistsSQL = `SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'card_cache'`
)

// dbPool abstracts the pgxpool.Pool methods used here so that tests can inject
// a fake without standing up a real database.
type dbPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache persists card payloads in the card_cache table so they
// survive restarts. The pool is opened lazily on first use and reused.
type PostgresCache struct {
	cfg     config.PostgresConfig
	ttl     time.Duration
	cb      *gobreaker.CircuitBreaker
	connect func(ctx context.Context, cfg config.PostgresConfig) (dbPool, error)
	now     func() time.Time

	mu   sync.Mutex
	pool dbPool
}

// NewPostgresCache creates a PostgresCache. No connection is made at
// construction time.
func NewPostgresCache(cfg config.PostgresConfig, ttl time.Duration, cb *gobreaker.CircuitBreaker) *PostgresCache {
	return &PostgresCache{
		cfg:     cfg,
		ttl:     ttl,
		cb:      cb,
		connect: realConnect,
		now:     time.Now,
	}
}

// Prepare creates the card_cache table if it does not exist.
func (c *PostgresCache) Prepare(ctx context.Context) error {
	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := pool.Exec(ctx, createCardCacheSQL); err != nil {
			return nil, fmt.Errorf("creating card_cache: %w", err)
		}
		return nil, nil
	})
	return err
}

// Get returns the payload stored under key if it is younger than the TTL.
func (c *PostgresCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload []byte
		hit     bool
	)
	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}
		err = pool.QueryRow(ctx, selectCardSQL, key, c.now().Add(-c.ttl)).Scan(&payload)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("selecting card: %w", err)
		}
		hit = true
		return nil, nil
	})
	if err != nil {
		return nil, false, err
	}
	return payload, hit, nil
}

// Set upserts the payload under key and refreshes its timestamp.
func (c *PostgresCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := pool.Exec(ctx, upsertCardSQL, key, value, c.now()); err != nil {
			return nil, fmt.Errorf("upserting card: %w", err)
		}
		return nil, nil
	})
	return err
}

// Probe pings the Postgres server and verifies the card_cache table exists.
// Persistent failures trip the breaker after three consecutive errors.
func (c *PostgresCache) Probe(ctx context.Context) health.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		pool, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}

		var exists int
		if err := pool.QueryRow(ctx, tableExistsSQL).Scan(&exists); err != nil {
			return nil, fmt.Errorf("card_cache table not found: %w", err)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return health.ProbeResult{
			Name:      postgresProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return health.ProbeResult{
		Name:      postgresProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}

// Close releases the pool if one was opened.
func (c *PostgresCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
	return nil
}

func (c *PostgresCache) acquire(ctx context.Context) (dbPool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		return c.pool, nil
	}
	pool, err := c.connect(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	c.pool = pool
	return pool, nil
}

// realConnect opens a pgxpool.Pool using the provided PostgresConfig.
func realConnect(ctx context.Context, cfg config.PostgresConfig) (dbPool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB, cfg.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	return pool, nil
}
