package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://latency.global/api/v1"
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

var (
	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_requests_total",
		Help: "Requests to the remote monitoring API by operation and outcome.",
	}, []string{"op", "outcome"})
	remoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Remote monitoring API round-trip time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// CredentialSource yields the bearer token for each request, so a key saved
// in settings is picked up without rebuilding the client.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) { return string(k), nil }

type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
}

type Client struct {
	http    *http.Client
	base    string
	ua      string
	timeout time.Duration
	creds   CredentialSource
	log     *zap.Logger
}

var _ monitor.Client = (*Client)(nil)

func NewHTTPClient(cfg Config) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

func New(cfg Config, creds CredentialSource, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "LatencyAgent/1.0"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:    NewHTTPClient(cfg),
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		ua:      cfg.UserAgent,
		timeout: cfg.Timeout,
		creds:   creds,
		log:     log.With(zap.String("component", "remote.client")),
	}
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body, out any) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("load api key: %w", err)
	}
	if key == "" {
		remoteRequests.WithLabelValues(op, "unauthorized").Inc()
		return ErrUnauthorized
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, rdr)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	remoteLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		remoteRequests.WithLabelValues(op, "transport").Inc()
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			err = fmt.Errorf("request timed out after %s: %w", c.timeout, err)
		}
		c.log.Debug("remote request failed", zap.String("op", op), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		remoteRequests.WithLabelValues(op, "transport").Inc()
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		remoteRequests.WithLabelValues(op, "remote_error").Inc()
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Message == "" {
			e.Message = "API request failed"
		}
		c.log.Debug("remote api rejected request",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("message", e.Message))
		return &RemoteError{Status: resp.StatusCode, Message: e.Message}
	}

	remoteRequests.WithLabelValues(op, "ok").Inc()
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func withQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

func monitorPath(id int64) string { return "/monitors/" + strconv.FormatInt(id, 10) }

type monitorEnvelope struct {
	Data *monitor.Monitor `json:"data"`
}

type statsEnvelope struct {
	Stats *monitor.Stats `json:"stats"`
}

func (c *Client) VerifyKey(ctx context.Context) error {
	return c.do(ctx, "verify_key", http.MethodGet, "/monitors?per_page=1", nil, nil)
}

func (c *Client) ListMonitors(ctx context.Context, params url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, "list_monitors", http.MethodGet, withQuery("/monitors", params), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMonitor(ctx context.Context, cfg monitor.Config) (*monitor.Monitor, error) {
	var env monitorEnvelope
	if err := c.do(ctx, "create_monitor", http.MethodPost, "/monitors", cfg, &env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.ID == 0 {
		return nil, fmt.Errorf("create monitor: %w", ErrEmptyResponse)
	}
	return env.Data, nil
}

func (c *Client) GetMonitor(ctx context.Context, id int64) (*monitor.Monitor, error) {
	var env monitorEnvelope
	if err := c.do(ctx, "get_monitor", http.MethodGet, monitorPath(id), nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("get monitor %d: %w", id, ErrEmptyResponse)
	}
	return env.Data, nil
}

func (c *Client) UpdateMonitor(ctx context.Context, id int64, cfg monitor.Config) (*monitor.Monitor, error) {
	var env monitorEnvelope
	if err := c.do(ctx, "update_monitor", http.MethodPut, monitorPath(id), cfg, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("update monitor %d: %w", id, ErrEmptyResponse)
	}
	return env.Data, nil
}

func (c *Client) DeleteMonitor(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_monitor", http.MethodDelete, monitorPath(id), nil, nil)
}

func (c *Client) GetResults(ctx context.Context, id int64, params url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, "get_results", http.MethodGet, withQuery(monitorPath(id)+"/results", params), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStats(ctx context.Context, id int64, days int) (*monitor.Stats, error) {
	if days <= 0 {
		days = monitor.DefaultStatsDays
	}
	var env statsEnvelope
	endpoint := monitorPath(id) + "/stats?days=" + strconv.Itoa(days)
	if err := c.do(ctx, "get_stats", http.MethodGet, endpoint, nil, &env); err != nil {
		return nil, err
	}
	if env.Stats == nil {
		return nil, fmt.Errorf("get stats %d: %w", id, ErrEmptyResponse)
	}
	return env.Stats, nil
}

func (c *Client) ListPoPs(ctx context.Context, params url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, "list_pops", http.MethodGet, withQuery("/pops", params), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
