package main

import (
	"context"
	"fmt"
	"time"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	"github.com/NordCoder/latency-agent/internal/domain/settings"
	pg "github.com/NordCoder/latency-agent/internal/repository/postgres"
	"github.com/NordCoder/latency-agent/internal/repository/sqlite"
	"go.uber.org/zap"
)

type store struct {
	Repo  settings.Repo
	ping  func(context.Context) error
	close func()
}

func (s *store) Ping(ctx context.Context) error { return s.ping(ctx) }
func (s *store) Close()                         { s.close() }

// initStore opens the configured settings backend. Postgres expects its schema
// to be applied by cmd/migrator; sqlite migrates itself on open.
func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	var st *store
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := pg.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		st = &store{Repo: pg.NewSettingsRepo(db), ping: db.Ping, close: db.Close}
	default:
		repo, err := sqlite.New(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		st = &store{Repo: repo, ping: repo.Ping, close: func() { _ = repo.Close() }}
	}

	if err := seedInstall(ctx, st.Repo, cfg.Install, logger); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// seedInstall writes install.api_key into a store that has no key yet. A key
// saved through the API is never overwritten.
func seedInstall(ctx context.Context, repo settings.Repo, in config.Install, logger *zap.Logger) error {
	if in.APIKey == "" {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := repo.Get(sctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if cur.HasAPIKey() {
		return nil
	}
	if err := repo.SetAPIKey(sctx, in.APIKey); err != nil {
		return fmt.Errorf("seed api key: %w", err)
	}
	logger.Info("api key seeded from config")
	return nil
}
