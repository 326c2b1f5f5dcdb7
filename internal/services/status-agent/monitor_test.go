package status_agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/NordCoder/latency-agent/internal/cache"
	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSiteMonitor_Defaults(t *testing.T) {
	e := newEnv(false)
	e.settings.s.APIKey = "lat_test"
	e.client.monitor = func() (*monitor.Monitor, error) { return &monitor.Monitor{ID: 1, IsUp: up(true)}, nil }

	m, err := e.svc.CreateSiteMonitor(context.Background(), monitor.Config{})
	require.NoError(t, err)
	assert.Equal(t, int64(77), m.ID)
	assert.Equal(t, monitor.Config{
		Name:     "Example Blog",
		URL:      "https://example.com/",
		Type:     monitor.TypeHTTPS,
		Interval: 60,
	}, e.client.created)

	st, _ := e.svc.Settings(context.Background())
	assert.Equal(t, int64(77), st.MonitorID)
	assert.True(t, st.AutoCreated)
}

func TestCreateSiteMonitor_NameFallsBackToHostAndOverridesWin(t *testing.T) {
	e := newEnv(false)
	e.svc.site = Site{URL: "http://shop.example.org/"}

	_, err := e.svc.CreateSiteMonitor(context.Background(), monitor.Config{Interval: 300})
	require.NoError(t, err)
	assert.Equal(t, "shop.example.org", e.client.created.Name)
	assert.Equal(t, monitor.TypeHTTP, e.client.created.Type)
	assert.Equal(t, 300, e.client.created.Interval)
}

func TestCreateSiteMonitor_RequiresSiteURL(t *testing.T) {
	e := newEnv(false)
	e.svc.site = Site{}
	_, err := e.svc.CreateSiteMonitor(context.Background(), monitor.Config{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, e.client.count("create"))
}

func TestCreateSiteMonitor_InvalidatesCache(t *testing.T) {
	e := newEnv(true)
	e.client.stats = func() (*monitor.Stats, error) { return &monitor.Stats{UptimePercentage: 90}, nil }
	_, err := e.svc.Stats(context.Background(), false)
	require.NoError(t, err)

	_, err = e.svc.CreateSiteMonitor(context.Background(), monitor.Config{})
	require.NoError(t, err)
	_, _, ok := e.coord.Cached(cache.KeyStats)
	assert.False(t, ok)
}

func TestUpdateMonitor(t *testing.T) {
	e := newEnv(true)
	_, err := e.svc.UpdateMonitor(context.Background(), monitor.Config{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m, err := e.svc.UpdateMonitor(context.Background(), monitor.Config{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", m.Name)
	assert.Equal(t, "renamed", e.client.updated.Name)
}

func TestPassThroughs(t *testing.T) {
	e := newEnv(true)
	raw, err := e.svc.MonitorResults(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))

	_, err = e.svc.ListMonitors(context.Background(), nil)
	require.NoError(t, err)
	_, err = e.svc.ListPoPs(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, e.svc.VerifyAPIKey(context.Background()))
	assert.Equal(t, 1, e.client.count("pops"))
}

func TestSetAPIKey_TrimsAndResetsCache(t *testing.T) {
	e := newEnv(true)
	e.client.stats = func() (*monitor.Stats, error) { return &monitor.Stats{}, nil }
	_, err := e.svc.Stats(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, e.svc.SetAPIKey(context.Background(), "  lat_new \n"))
	st, _ := e.svc.Settings(context.Background())
	assert.Equal(t, "lat_new", st.APIKey)
	_, _, ok := e.coord.Cached(cache.KeyStats)
	assert.False(t, ok)

	key, err := SettingsCredentials{Repo: e.settings}.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lat_new", key)
}

func TestDeactivateAndUninstall(t *testing.T) {
	e := newEnv(true)
	stop := &fakeStopper{}
	e.svc.AttachScheduler(stop)
	e.client.stats = func() (*monitor.Stats, error) { return &monitor.Stats{}, nil }
	_, err := e.svc.Stats(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, e.svc.Deactivate(context.Background()))
	assert.Equal(t, 1, stop.stopped)
	_, _, ok := e.coord.Cached(cache.KeyStats)
	assert.False(t, ok)
	st, _ := e.svc.Settings(context.Background())
	assert.True(t, st.Configured(), "deactivation keeps settings")

	require.NoError(t, e.svc.Uninstall(context.Background()))
	st, _ = e.svc.Settings(context.Background())
	assert.False(t, st.HasAPIKey())
	assert.False(t, st.HasMonitor())
}
