package status_agent

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/NordCoder/latency-agent/internal/cache"
	"github.com/NordCoder/latency-agent/internal/domain/kafka"
	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/domain/settings"
)

type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	stats   func() (*monitor.Stats, error)
	monitor func() (*monitor.Monitor, error)
	probe   func() (*monitor.ProbeResult, error)

	created monitor.Config
	updated monitor.Config
	deleted []int64
	ping    monitor.PingParams
	http    monitor.HTTPParams
	dns     monitor.DNSParams
}

var _ monitor.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient { return &fakeClient{calls: map[string]int{}} }

func (f *fakeClient) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeClient) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) VerifyKey(context.Context) error { f.hit("verify"); return nil }

func (f *fakeClient) ListMonitors(context.Context, url.Values) (json.RawMessage, error) {
	f.hit("list_monitors")
	return json.RawMessage(`{"data":[]}`), nil
}

func (f *fakeClient) CreateMonitor(_ context.Context, cfg monitor.Config) (*monitor.Monitor, error) {
	f.hit("create")
	f.mu.Lock()
	f.created = cfg
	f.mu.Unlock()
	return &monitor.Monitor{ID: 77, Name: cfg.Name, URL: cfg.URL, Type: cfg.Type, Interval: cfg.Interval}, nil
}

func (f *fakeClient) GetMonitor(context.Context, int64) (*monitor.Monitor, error) {
	f.hit("get_monitor")
	return f.monitor()
}

func (f *fakeClient) UpdateMonitor(_ context.Context, id int64, cfg monitor.Config) (*monitor.Monitor, error) {
	f.hit("update")
	f.mu.Lock()
	f.updated = cfg
	f.mu.Unlock()
	return &monitor.Monitor{ID: id, Name: cfg.Name}, nil
}

func (f *fakeClient) DeleteMonitor(_ context.Context, id int64) error {
	f.hit("delete")
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) GetResults(context.Context, int64, url.Values) (json.RawMessage, error) {
	f.hit("results")
	return json.RawMessage(`{"data":[]}`), nil
}

func (f *fakeClient) GetStats(context.Context, int64, int) (*monitor.Stats, error) {
	f.hit("get_stats")
	return f.stats()
}

func (f *fakeClient) ListPoPs(context.Context, url.Values) (json.RawMessage, error) {
	f.hit("pops")
	return json.RawMessage(`{"data":[]}`), nil
}

func (f *fakeClient) ProbePing(_ context.Context, p monitor.PingParams) (*monitor.ProbeResult, error) {
	f.hit("ping")
	f.ping = p
	return f.probeResult()
}

func (f *fakeClient) ProbeHTTP(_ context.Context, p monitor.HTTPParams) (*monitor.ProbeResult, error) {
	f.hit("http")
	f.http = p
	return f.probeResult()
}

func (f *fakeClient) ProbeDNS(_ context.Context, p monitor.DNSParams) (*monitor.ProbeResult, error) {
	f.hit("dns")
	f.dns = p
	return f.probeResult()
}

func (f *fakeClient) probeResult() (*monitor.ProbeResult, error) {
	if f.probe == nil {
		return &monitor.ProbeResult{}, nil
	}
	return f.probe()
}

type memSettings struct {
	mu sync.Mutex
	s  settings.Settings
}

var _ settings.Repo = (*memSettings)(nil)

func (m *memSettings) Get(context.Context) (*settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.s
	return &cp, nil
}

func (m *memSettings) SetAPIKey(_ context.Context, key string) error {
	m.mu.Lock()
	m.s.APIKey = key
	m.mu.Unlock()
	return nil
}

func (m *memSettings) SetShowBadge(_ context.Context, show bool) error {
	m.mu.Lock()
	m.s.ShowBadge = show
	m.mu.Unlock()
	return nil
}

func (m *memSettings) SetMonitor(_ context.Context, id int64, auto bool) error {
	m.mu.Lock()
	m.s.MonitorID, m.s.AutoCreated = id, auto
	m.mu.Unlock()
	return nil
}

func (m *memSettings) ClearMonitor(context.Context) error {
	m.mu.Lock()
	m.s.MonitorID, m.s.AutoCreated = 0, false
	m.mu.Unlock()
	return nil
}

func (m *memSettings) Delete(context.Context) error {
	m.mu.Lock()
	m.s = settings.Settings{}
	m.mu.Unlock()
	return nil
}

type fakeEvents struct {
	mu  sync.Mutex
	got []kafka.StatusChanged
}

func (f *fakeEvents) PublishStatusChanged(_ context.Context, ev kafka.StatusChanged) error {
	f.mu.Lock()
	f.got = append(f.got, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeEvents) events() []kafka.StatusChanged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.StatusChanged(nil), f.got...)
}

type fakeStopper struct{ stopped int }

func (f *fakeStopper) Stop(context.Context) error { f.stopped++; return nil }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	svc      *Service
	client   *fakeClient
	settings *memSettings
	events   *fakeEvents
	coord    *cache.Coordinator
	clock    *clock
}

func newEnv(configured bool) *env {
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	coord := cache.NewCoordinator(cache.NewStore(cache.DefaultTTL, clk), nil)
	e := &env{
		client:   newFakeClient(),
		settings: &memSettings{},
		events:   &fakeEvents{},
		coord:    coord,
		clock:    clk,
	}
	if configured {
		e.settings.s = settings.Settings{APIKey: "lat_test", MonitorID: 42}
	}
	e.svc = New(Deps{
		Client:   e.client,
		Settings: e.settings,
		Coord:    coord,
		Events:   e.events,
		Site:     Site{Name: "Example Blog", URL: "https://example.com/"},
		Clock:    clk.Now,
	})
	return e
}

func up(v bool) *bool { return &v }
