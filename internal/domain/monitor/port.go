package monitor

import (
	"context"
	"encoding/json"
	"net/url"
)

// Client is the remote monitoring API as seen by the agent.
type Client interface {
	VerifyKey(ctx context.Context) error
	ListMonitors(ctx context.Context, params url.Values) (json.RawMessage, error)
	CreateMonitor(ctx context.Context, cfg Config) (*Monitor, error)
	GetMonitor(ctx context.Context, id int64) (*Monitor, error)
	UpdateMonitor(ctx context.Context, id int64, cfg Config) (*Monitor, error)
	DeleteMonitor(ctx context.Context, id int64) error
	GetResults(ctx context.Context, id int64, params url.Values) (json.RawMessage, error)
	GetStats(ctx context.Context, id int64, days int) (*Stats, error)
	ListPoPs(ctx context.Context, params url.Values) (json.RawMessage, error)

	ProbePing(ctx context.Context, p PingParams) (*ProbeResult, error)
	ProbeHTTP(ctx context.Context, p HTTPParams) (*ProbeResult, error)
	ProbeDNS(ctx context.Context, p DNSParams) (*ProbeResult, error)
}
