package status_agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
)

const defaultPingPackets = 3

// Probes are pass-through: nothing here touches the cache.

func (s *Service) ProbePing(ctx context.Context, target string, packets int) (*monitor.ProbeResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidInput)
	}
	if packets <= 0 {
		packets = defaultPingPackets
	}
	return s.client.ProbePing(ctx, monitor.PingParams{Target: target, Packets: packets})
}

func (s *Service) ProbeHTTP(ctx context.Context, rawURL string) (*monitor.ProbeResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidInput, rawURL)
	}
	res, err := s.client.ProbeHTTP(ctx, monitor.HTTPParams{URL: u.String()})
	if err != nil {
		return nil, err
	}
	res.Output = httpProbeOutput(res)
	return res, nil
}

func (s *Service) ProbeDNS(ctx context.Context, name, typ string) (*monitor.ProbeResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: domain name is required", ErrInvalidInput)
	}
	typ = strings.ToUpper(strings.TrimSpace(typ))
	if typ == "" {
		typ = "A"
	}
	return s.client.ProbeDNS(ctx, monitor.DNSParams{Name: name, Type: typ})
}

// httpProbeOutput renders the timing breakdown shown in the tools page.
// Without timing metadata it falls back to stdout, then to the raw payload.
func httpProbeOutput(res *monitor.ProbeResult) string {
	if m := res.Meta; m != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "Status: %s\n", orNA(intStr(m.Status)))
		fmt.Fprintf(&b, "Total Latency: %s ms\n", orNA(floatStr(m.LatencyMS)))
		b.WriteString("\n--- Timing Breakdown ---\n")
		fmt.Fprintf(&b, "DNS Lookup: %s ms\n", orNA(floatStr(m.DNSMS)))
		fmt.Fprintf(&b, "TCP Connect: %s ms\n", orNA(floatStr(m.ConnectMS)))
		fmt.Fprintf(&b, "TLS Handshake: %s ms\n", orNA(floatStr(m.TLSMS)))
		fmt.Fprintf(&b, "Time to First Byte: %s ms\n", orNA(floatStr(m.TTFBMS)))
		if m.TLSVersion != nil {
			b.WriteString("\n--- TLS Info ---\n")
			fmt.Fprintf(&b, "TLS Version: %s\n", *m.TLSVersion)
			fmt.Fprintf(&b, "Cipher: %s\n", orNA(m.TLSCipher))
		}
		var body *string
		if m.BodyLen != nil {
			v := strconv.FormatInt(*m.BodyLen, 10)
			body = &v
		}
		fmt.Fprintf(&b, "\nBody Length: %s bytes\n", orNA(body))
		return b.String()
	}
	if res.Stdout != "" {
		return res.Stdout
	}
	if len(res.Raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(res.Raw, &v); err != nil {
		return string(res.Raw)
	}
	pretty, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return string(res.Raw)
	}
	return string(pretty)
}

func orNA(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}

func intStr(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}

func floatStr(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}
