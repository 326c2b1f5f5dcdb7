package monitor

import "encoding/json"

type Type string

const (
	TypeHTTP  Type = "http"
	TypeHTTPS Type = "https"
)

const (
	DefaultInterval  = 60
	DefaultStatsDays = 7
)

type Monitor struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Type        Type    `json:"type"`
	Interval    int     `json:"interval"`
	IsUp        *bool   `json:"is_up,omitempty"`
	LastLatency float64 `json:"last_latency"`
}

// Up reports the liveness of the monitor. The remote side omits is_up for
// monitors that have not been checked yet; those count as up.
func (m *Monitor) Up() bool {
	if m == nil || m.IsUp == nil {
		return true
	}
	return *m.IsUp
}

// Config is the payload for creating or updating a monitor. Zero fields are
// left for the remote side (or the caller's defaults) to fill.
type Config struct {
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	Type     Type   `json:"type,omitempty"`
	Interval int    `json:"interval,omitempty"`
}

type Stats struct {
	UptimePercentage float64 `json:"uptime_percentage"`
	AvgLatency       float64 `json:"avg_latency"`
	MinLatency       float64 `json:"min_latency"`
	MaxLatency       float64 `json:"max_latency"`
	TotalChecks      int64   `json:"total_checks"`
	SuccessfulChecks int64   `json:"successful_checks"`
}

type Status struct {
	IsUp    bool    `json:"is_up"`
	Latency float64 `json:"latency"`
}

// StatusOf reduces a monitor to the lightweight liveness snapshot.
func StatusOf(m *Monitor) Status {
	if m == nil {
		return Status{IsUp: true}
	}
	return Status{IsUp: m.Up(), Latency: m.LastLatency}
}

// UptimeClass buckets an uptime percentage for badges and widgets.
func UptimeClass(uptime float64) string {
	switch {
	case uptime >= 99:
		return "good"
	case uptime >= 95:
		return "warning"
	default:
		return "bad"
	}
}

type PingParams struct {
	Target  string `json:"target"`
	Packets int    `json:"packets,omitempty"`
}

type HTTPParams struct {
	URL string `json:"url"`
}

type DNSParams struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ProbeResult is the raw remote answer of a one-shot probe. Its shape differs
// per probe kind, so it is kept undecoded apart from the common fields.
type ProbeResult struct {
	Raw    json.RawMessage `json:"-"`
	Stdout string          `json:"stdout,omitempty"`
	Meta   *HTTPMeta       `json:"meta,omitempty"`
	Output string          `json:"output,omitempty"`
}

type HTTPMeta struct {
	Status     *int     `json:"status,omitempty"`
	LatencyMS  *float64 `json:"latency_ms,omitempty"`
	DNSMS      *float64 `json:"t_dns_ms,omitempty"`
	ConnectMS  *float64 `json:"t_connect_ms,omitempty"`
	TLSMS      *float64 `json:"t_tls_ms,omitempty"`
	TTFBMS     *float64 `json:"t_ttfb_ms,omitempty"`
	TLSVersion *string  `json:"tls_version,omitempty"`
	TLSCipher  *string  `json:"tls_cipher,omitempty"`
	BodyLen    *int64   `json:"body_len,omitempty"`
}

// MarshalJSON emits the untouched remote payload with the computed output
// merged in, so callers see every field the remote side returned.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if len(r.Raw) > 0 {
		if err := json.Unmarshal(r.Raw, &out); err != nil {
			return nil, err
		}
	}
	if r.Output != "" {
		out["output"] = r.Output
	}
	return json.Marshal(out)
}
