package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The store holds a single settings row, so the pool stays small unless told otherwise.
const (
	defaultMaxConns       = 4
	defaultConnectTimeout = 5 * time.Second
)

type Config struct {
	URL               string        `mapstructure:"url"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout      time.Duration `mapstructure:"query_timeout"`
}

// poolConfig parses URL and lays the non-zero overrides on top of it.
func (c Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	pc.MaxConns = defaultMaxConns
	for _, o := range []struct {
		set bool
		fn  func()
	}{
		{c.MaxConns > 0, func() { pc.MaxConns = c.MaxConns }},
		{c.MinConns > 0, func() { pc.MinConns = c.MinConns }},
		{c.MaxConnLifetime > 0, func() { pc.MaxConnLifetime = c.MaxConnLifetime }},
		{c.MaxConnIdleTime > 0, func() { pc.MaxConnIdleTime = c.MaxConnIdleTime }},
		{c.HealthCheckPeriod > 0, func() { pc.HealthCheckPeriod = c.HealthCheckPeriod }},
	} {
		if o.set {
			o.fn()
		}
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}
	return pc, nil
}

// DB is the settings store's connection pool with a per-query deadline.
type DB struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// New connects and refuses to return until the server answered a ping.
func New(ctx context.Context, cfg Config) (*DB, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	wait := cfg.ConnectTimeout
	if wait <= 0 {
		wait = defaultConnectTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable at startup: %w", err)
	}
	return &DB{pool: pool, queryTimeout: cfg.QueryTimeout}, nil
}

func (db *DB) Ping(ctx context.Context) error { return db.pool.Ping(ctx) }

func (db *DB) Close() { db.pool.Close() }

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.queryTimeout > 0 {
		return context.WithTimeout(ctx, db.queryTimeout)
	}
	return context.WithCancel(ctx)
}
