package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/remote"
	status_agent "github.com/NordCoder/latency-agent/internal/services/status-agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubAgent overrides only what a test needs; anything else panics through
// the nil embedded interface.
type stubAgent struct {
	Agent

	status func(force bool) (monitor.Status, error)
	widget func() (*status_agent.Widget, error)
	badge  func(style status_agent.BadgeStyle) (*status_agent.Badge, error)
	footer func() (*status_agent.Badge, error)
	create func(monitor.Config) (*monitor.Monitor, error)
}

func (s *stubAgent) Status(_ context.Context, force bool) (monitor.Status, error) {
	return s.status(force)
}

func (s *stubAgent) Widget(context.Context) (*status_agent.Widget, error) { return s.widget() }

func (s *stubAgent) Badge(_ context.Context, style status_agent.BadgeStyle) (*status_agent.Badge, error) {
	return s.badge(style)
}

func (s *stubAgent) FooterBadge(context.Context) (*status_agent.Badge, error) { return s.footer() }

func (s *stubAgent) CreateSiteMonitor(_ context.Context, o monitor.Config) (*monitor.Monitor, error) {
	return s.create(o)
}

type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, a Agent, req *http.Request) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(a, nil), RouterConfig{CORSOrigins: []string{"https://example.com"}}).ServeHTTP(rec, req)
	var out reply
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestStatus_PublicReadIgnoresForceParam(t *testing.T) {
	var gotForce []bool
	a := &stubAgent{status: func(force bool) (monitor.Status, error) {
		gotForce = append(gotForce, force)
		return monitor.Status{IsUp: true, Latency: 87}, nil
	}}

	rec, out := serve(t, a, httptest.NewRequest(http.MethodGet, "/v1/status?force=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, out.Success)
	assert.Equal(t, []bool{false}, gotForce)
	assert.JSONEq(t, `{"is_up":true,"latency":87}`, string(out.Data))
}

func TestStatusRefresh_ForcesBehindAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	var gotForce []bool
	a := &stubAgent{status: func(force bool) (monitor.Status, error) {
		gotForce = append(gotForce, force)
		return monitor.Status{IsUp: false}, nil
	}}
	router := NewRouter(NewHandler(a, nil), RouterConfig{AdminTokenHash: string(hash)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, gotForce)

	req := httptest.NewRequest(http.MethodPost, "/v1/status/refresh", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, gotForce)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		expect string
	}{
		{"not configured", status_agent.ErrNotConfigured, http.StatusConflict, `"setup_required":true`},
		{"no monitor", status_agent.ErrNoMonitor, http.StatusConflict, `"No monitor configured"`},
		{"bad credential", &remote.RemoteError{Status: 401, Message: "Invalid token"}, http.StatusUnauthorized, `"setup_required":true`},
		{"remote failure", &remote.RemoteError{Status: 500, Message: "boom"}, http.StatusBadGateway, `"remote_status":500`},
		{"transport", &remote.TransportError{Op: "get_monitor", Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, `"retry":true`},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, `"internal error"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &stubAgent{status: func(bool) (monitor.Status, error) { return monitor.Status{}, tc.err }}
			rec, out := serve(t, a, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
			assert.Equal(t, tc.code, rec.Code)
			assert.False(t, out.Success)
			assert.Contains(t, string(out.Data), tc.expect)
		})
	}
}

func TestWidget_StaleValueTravelsWithError(t *testing.T) {
	a := &stubAgent{widget: func() (*status_agent.Widget, error) {
		return &status_agent.Widget{MonitorID: 42, Uptime: 99.9, Stale: true},
			&remote.TransportError{Op: "get_stats", Err: context.DeadlineExceeded}
	}}

	rec, out := serve(t, a, httptest.NewRequest(http.MethodGet, "/v1/widget", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Retry bool                 `json:"retry"`
		Stale *status_agent.Widget `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &body))
	assert.True(t, body.Retry)
	require.NotNil(t, body.Stale)
	assert.Equal(t, int64(42), body.Stale.MonitorID)
}

func TestBadge_HiddenIsNoContentAndFooterStyleRoutes(t *testing.T) {
	footerCalls := 0
	a := &stubAgent{
		badge: func(status_agent.BadgeStyle) (*status_agent.Badge, error) { return nil, nil },
		footer: func() (*status_agent.Badge, error) {
			footerCalls++
			return &status_agent.Badge{Style: status_agent.BadgeMinimal, Text: "99.50% uptime"}, nil
		},
	}

	rec, _ := serve(t, a, httptest.NewRequest(http.MethodGet, "/v1/badge?style=detailed", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, out := serve(t, a, httptest.NewRequest(http.MethodGet, "/v1/badge?style=footer", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, footerCalls)
	assert.Contains(t, string(out.Data), "99.50% uptime")
}

func TestCreateMonitor_PassesOverrides(t *testing.T) {
	var got monitor.Config
	a := &stubAgent{create: func(o monitor.Config) (*monitor.Monitor, error) {
		got = o
		return &monitor.Monitor{ID: 77, Name: o.Name}, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/v1/monitor", strings.NewReader(`{"name":"Blog","interval":120}`))
	req.Header.Set("Content-Type", "application/json")
	rec, out := serve(t, a, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blog", got.Name)
	assert.Equal(t, 120, got.Interval)
	assert.Contains(t, string(out.Data), `"monitor_id":77`)
}

func TestMalformedBody_IsBadRequest(t *testing.T) {
	a := &stubAgent{create: func(monitor.Config) (*monitor.Monitor, error) {
		t.Fatal("agent must not be called")
		return nil, nil
	}}
	rec, out := serve(t, a, httptest.NewRequest(http.MethodPost, "/v1/monitor", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, out.Success)
}

func TestPanicIsRecovered(t *testing.T) {
	// Indicator is not stubbed, so the nil embedded Agent panics.
	rec := httptest.NewRecorder()
	NewRouter(NewHandler(&stubAgent{}, nil), RouterConfig{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/indicator", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	a := &stubAgent{status: func(bool) (monitor.Status, error) { return monitor.Status{IsUp: true}, nil }}
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set("Origin", "https://example.com")

	rec, _ := serve(t, a, req)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a := &stubAgent{
		status: func(bool) (monitor.Status, error) { return monitor.Status{IsUp: true}, nil },
		create: func(o monitor.Config) (*monitor.Monitor, error) { return &monitor.Monitor{ID: 1}, nil },
	}
	router := NewRouter(NewHandler(a, nil), RouterConfig{AdminTokenHash: string(hash)})

	call := func(method, path, token string) int {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/v1/status", ""), "public reads stay open")
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/v1/monitor", ""))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/v1/monitor", "wrong"))
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/v1/monitor", "s3cret"))
}

func TestBearer(t *testing.T) {
	tok, ok := bearer("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearer("Basic abc")
	assert.False(t, ok)
	_, ok = bearer("Bearer ")
	assert.False(t, ok)
}
