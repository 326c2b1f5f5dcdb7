package status_agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/domain/settings"
	"github.com/NordCoder/latency-agent/internal/obs"
	"go.uber.org/zap"
)

// siteMonitorConfig fills the defaults for monitoring this site; non-zero
// override fields win.
func (s *Service) siteMonitorConfig(overrides monitor.Config) (monitor.Config, error) {
	cfg := monitor.Config{
		Name:     s.site.Name,
		URL:      s.site.URL,
		Interval: monitor.DefaultInterval,
	}
	if overrides.URL != "" {
		cfg.URL = overrides.URL
	}
	if cfg.URL == "" {
		return monitor.Config{}, fmt.Errorf("%w: site url is not configured", ErrInvalidInput)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return monitor.Config{}, fmt.Errorf("%w: site url %q is not an http(s) url", ErrInvalidInput, cfg.URL)
	}

	cfg.Type = monitor.TypeHTTP
	if u.Scheme == "https" {
		cfg.Type = monitor.TypeHTTPS
	}
	if cfg.Name == "" {
		cfg.Name = u.Hostname()
	}

	if overrides.Name != "" {
		cfg.Name = overrides.Name
	}
	if overrides.Type != "" {
		cfg.Type = overrides.Type
	}
	if overrides.Interval > 0 {
		cfg.Interval = overrides.Interval
	}
	return cfg, nil
}

// CreateSiteMonitor registers this site with the remote API and remembers the
// new monitor as auto-created.
func (s *Service) CreateSiteMonitor(ctx context.Context, overrides monitor.Config) (*monitor.Monitor, error) {
	cfg, err := s.siteMonitorConfig(overrides)
	if err != nil {
		return nil, err
	}
	m, err := s.client.CreateMonitor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.settings.SetMonitor(ctx, m.ID, true); err != nil {
		return nil, fmt.Errorf("save monitor id: %w", err)
	}
	s.resetCache()
	obs.WithTrace(ctx, s.log).Info("monitor created", zap.Int64("monitor_id", m.ID), zap.String("url", cfg.URL))
	return m, nil
}

func (s *Service) DeleteMonitor(ctx context.Context) error {
	id, err := s.monitorID(ctx)
	if err != nil {
		return err
	}
	if err := s.client.DeleteMonitor(ctx, id); err != nil {
		return err
	}
	if err := s.settings.ClearMonitor(ctx); err != nil {
		return fmt.Errorf("clear monitor id: %w", err)
	}
	s.resetCache()
	obs.WithTrace(ctx, s.log).Info("monitor deleted", zap.Int64("monitor_id", id))
	return nil
}

func (s *Service) UpdateMonitor(ctx context.Context, patch monitor.Config) (*monitor.Monitor, error) {
	id, err := s.monitorID(ctx)
	if err != nil {
		return nil, err
	}
	if patch == (monitor.Config{}) {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	m, err := s.client.UpdateMonitor(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.resetCache()
	return m, nil
}

// Monitor returns live monitor details; the admin page never reads them from cache.
func (s *Service) Monitor(ctx context.Context) (*monitor.Monitor, error) {
	id, err := s.monitorID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.GetMonitor(ctx, id)
}

func (s *Service) MonitorResults(ctx context.Context, params url.Values) (json.RawMessage, error) {
	id, err := s.monitorID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.GetResults(ctx, id, params)
}

func (s *Service) ListMonitors(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return s.client.ListMonitors(ctx, params)
}

func (s *Service) ListPoPs(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return s.client.ListPoPs(ctx, params)
}

func (s *Service) VerifyAPIKey(ctx context.Context) error {
	return s.client.VerifyKey(ctx)
}

func (s *Service) Settings(ctx context.Context) (*settings.Settings, error) {
	return s.settings.Get(ctx)
}

// SetAPIKey stores a new credential. Cached data may belong to another
// account, so the cache is dropped.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := s.settings.SetAPIKey(ctx, key); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	s.resetCache()
	return nil
}

func (s *Service) SetShowBadge(ctx context.Context, show bool) error {
	if err := s.settings.SetShowBadge(ctx, show); err != nil {
		return fmt.Errorf("save badge preference: %w", err)
	}
	return nil
}
