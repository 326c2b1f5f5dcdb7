package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	status_agent "github.com/NordCoder/latency-agent/internal/services/status-agent"
	"github.com/NordCoder/latency-agent/internal/transport/httpapi"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, svc *status_agent.Service) *http.Server {
	handler := httpapi.NewRouter(
		httpapi.NewHandler(svc, logger),
		httpapi.RouterConfig{
			CORSOrigins:    cfg.Server.CORSOrigins,
			AdminTokenHash: cfg.Server.AdminTokenHash,
		},
	)
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
