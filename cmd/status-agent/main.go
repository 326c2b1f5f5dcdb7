package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NordCoder/latency-agent/internal/cache"
	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	"github.com/NordCoder/latency-agent/internal/obs"
	"github.com/NordCoder/latency-agent/internal/remote"
	"github.com/NordCoder/latency-agent/internal/services/scheduler"
	status_agent "github.com/NordCoder/latency-agent/internal/services/status-agent"
	"github.com/NordCoder/latency-agent/internal/transport/httpapi"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/status-agent.yaml", "path to the yaml config")
	uninstall := flag.Bool("uninstall", false, "delete the stored settings and exit")
	hashToken := flag.String("hash-admin-token", "", "print the bcrypt hash for server.admin_token_hash and exit")
	flag.Parse()

	if *hashToken != "" {
		h, err := httpapi.HashAdminToken(*hashToken)
		if err != nil {
			panic(err)
		}
		fmt.Println(h)
		return
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting status-agent",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("store", cfg.Store.Driver),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	st, err := initStore(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer st.Close()

	events, closeEvents := initEvents(rootCtx, cfg, logger)
	defer closeEvents()

	client := remote.New(cfg.Remote, status_agent.SettingsCredentials{Repo: st.Repo}, logger)
	coord := cache.NewCoordinator(cache.NewStore(cfg.Cache.TTL, cache.SystemClock{}), logger)
	svc := status_agent.New(status_agent.Deps{
		Log:      logger,
		Client:   client,
		Settings: st.Repo,
		Coord:    coord,
		Events:   events,
		Site:     status_agent.Site{Name: cfg.Install.SiteName, URL: cfg.Install.SiteURL},
	})

	if *uninstall {
		if err := svc.Uninstall(rootCtx); err != nil {
			logger.Fatal("uninstall", zap.Error(err))
		}
		logger.Info("settings deleted")
		return
	}

	runner := scheduler.New(logger, svc, &cfg.Sync)
	svc.AttachScheduler(runner)

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, st.Ping, logger)

	syncErrCh := make(chan error, 1)
	go func() { syncErrCh <- runner.Run(rootCtx) }()

	if cfg.Server.AdminTokenHash == "" {
		logger.Warn("server.admin_token_hash is empty, admin routes are open")
	}
	httpSrv := buildHTTPServer(cfg, logger, svc)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-syncErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	if err := svc.Deactivate(shCtx); err != nil {
		logger.Warn("deactivate", zap.Error(err))
	}
	_ = ms.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
