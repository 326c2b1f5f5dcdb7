package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, key string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "test-agent"}, StaticKey(key), nil)
}

func TestGetStats_DecodesEnvelopeAndSendsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/monitors/42/stats", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		assert.Equal(t, "Bearer lat_secret", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"stats":{"uptime_percentage":99.95,"avg_latency":42,"min_latency":10,"max_latency":300,"total_checks":1000,"successful_checks":999}}`)
	}, "lat_secret")

	st, err := c.GetStats(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Equal(t, 99.95, st.UptimePercentage)
	assert.Equal(t, float64(42), st.AvgLatency)
	assert.Equal(t, int64(999), st.SuccessfulChecks)
}

func TestMissingKey_IsUnauthorizedWithoutRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, "")

	_, err := c.GetMonitor(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsCredentialError(err))
	assert.False(t, called)
}

func TestRemoteStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		credential bool
		transient  bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Invalid token"}`, "Invalid token", true, false},
		{"not found without message", http.StatusNotFound, `{}`, "API request failed", false, false},
		{"server error", http.StatusBadGateway, `{"message":"upstream down"}`, "upstream down", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, "k")

			_, err := c.GetMonitor(context.Background(), 7)
			var re *RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.wantMsg, re.Message)
			assert.Equal(t, tc.credential, IsCredentialError(err))
			assert.Equal(t, tc.transient, IsTransient(err))
		})
	}
}

func TestTimeout_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL, Timeout: 30 * time.Millisecond}, StaticKey("k"), nil)

	_, err := c.GetStats(context.Background(), 1, 7)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "get_stats", te.Op)
	assert.True(t, IsTransient(err))
	assert.False(t, IsCredentialError(err))
}

func TestCreateMonitor_RequiresIDInResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"data":{}}`)
	}, "k")

	_, err := c.CreateMonitor(context.Background(), monitor.Config{Name: "site"})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestProbeHTTP_PicksEndpointByScheme(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"meta":{"status":200,"latency_ms":12.5},"extra":"kept"}`)
	}, "k")

	res, err := c.ProbeHTTP(context.Background(), monitor.HTTPParams{URL: "https://example.com"})
	require.NoError(t, err)
	require.NotNil(t, res.Meta)
	assert.Equal(t, 200, *res.Meta.Status)
	assert.Contains(t, string(res.Raw), `"extra":"kept"`)

	_, err = c.ProbeHTTP(context.Background(), monitor.HTTPParams{URL: "http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/probe/https-get", "/probe/http-get"}, paths)
}
