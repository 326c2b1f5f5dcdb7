package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
)

// Probes are never cached: every call is a fresh round trip.

func (c *Client) probe(ctx context.Context, op, endpoint string, body any) (*monitor.ProbeResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPost, endpoint, body, &raw); err != nil {
		return nil, err
	}
	res := &monitor.ProbeResult{Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, res); err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("decode probe result: %w", err)}
		}
	}
	return res, nil
}

func (c *Client) ProbePing(ctx context.Context, p monitor.PingParams) (*monitor.ProbeResult, error) {
	return c.probe(ctx, "probe_ping", "/probe/ping", p)
}

func (c *Client) ProbeHTTP(ctx context.Context, p monitor.HTTPParams) (*monitor.ProbeResult, error) {
	endpoint := "/probe/http-get"
	if strings.HasPrefix(p.URL, "https://") {
		endpoint = "/probe/https-get"
	}
	return c.probe(ctx, "probe_http", endpoint, p)
}

func (c *Client) ProbeDNS(ctx context.Context, p monitor.DNSParams) (*monitor.ProbeResult, error) {
	return c.probe(ctx, "probe_dns", "/probe/dns", p)
}
