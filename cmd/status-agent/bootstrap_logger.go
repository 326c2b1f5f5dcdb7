package main

import (
	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	"github.com/NordCoder/latency-agent/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
