package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/domain/settings"
	status_agent "github.com/NordCoder/latency-agent/internal/services/status-agent"
	"go.uber.org/zap"
)

// Agent is the use case surface served over HTTP.
type Agent interface {
	Stats(ctx context.Context, force bool) (*monitor.Stats, error)
	RefreshStats(ctx context.Context) (*monitor.Stats, error)
	Status(ctx context.Context, force bool) (monitor.Status, error)
	Widget(ctx context.Context) (*status_agent.Widget, error)
	Badge(ctx context.Context, style status_agent.BadgeStyle) (*status_agent.Badge, error)
	FooterBadge(ctx context.Context) (*status_agent.Badge, error)
	Indicator(ctx context.Context) status_agent.Indicator
	AdminBar(ctx context.Context) (*status_agent.AdminBar, error)

	Monitor(ctx context.Context) (*monitor.Monitor, error)
	CreateSiteMonitor(ctx context.Context, overrides monitor.Config) (*monitor.Monitor, error)
	UpdateMonitor(ctx context.Context, patch monitor.Config) (*monitor.Monitor, error)
	DeleteMonitor(ctx context.Context) error
	MonitorResults(ctx context.Context, params url.Values) (json.RawMessage, error)
	ListMonitors(ctx context.Context, params url.Values) (json.RawMessage, error)
	ListPoPs(ctx context.Context, params url.Values) (json.RawMessage, error)
	VerifyAPIKey(ctx context.Context) error

	Settings(ctx context.Context) (*settings.Settings, error)
	SetAPIKey(ctx context.Context, key string) error
	SetShowBadge(ctx context.Context, show bool) error
	Deactivate(ctx context.Context) error

	ProbePing(ctx context.Context, target string, packets int) (*monitor.ProbeResult, error)
	ProbeHTTP(ctx context.Context, rawURL string) (*monitor.ProbeResult, error)
	ProbeDNS(ctx context.Context, name, typ string) (*monitor.ProbeResult, error)
}

var _ Agent = (*status_agent.Service)(nil)

type Handler struct {
	agent Agent
	log   *zap.Logger
}

func NewHandler(agent Agent, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{agent: agent, log: log.With(zap.String("component", "httpapi"))}
}

// GetStatus and GetStats are visitor-facing and only ever read through the
// cache; forced refreshes live behind the admin routes.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.Status(r.Context(), false)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, st)
}

func (h *Handler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.Status(r.Context(), true)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, st)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.Stats(r.Context(), false)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, st)
}

func (h *Handler) RefreshStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.RefreshStats(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, st)
}

func (h *Handler) GetWidget(w http.ResponseWriter, r *http.Request) {
	wd, err := h.agent.Widget(r.Context())
	if err != nil {
		status, body := classify(err)
		if wd != nil {
			body.Stale = wd
		}
		writeJSON(w, status, envelope{Success: false, Data: body})
		return
	}
	writeOK(w, wd)
}

func (h *Handler) GetBadge(w http.ResponseWriter, r *http.Request) {
	var (
		b   *status_agent.Badge
		err error
	)
	if style := r.URL.Query().Get("style"); style == "footer" {
		b, err = h.agent.FooterBadge(r.Context())
	} else {
		b, err = h.agent.Badge(r.Context(), status_agent.BadgeStyle(style))
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if b == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeOK(w, b)
}

func (h *Handler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.agent.Indicator(r.Context()))
}

func (h *Handler) GetAdminBar(w http.ResponseWriter, r *http.Request) {
	bar, err := h.agent.AdminBar(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, bar)
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	m, err := h.agent.Monitor(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, m)
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var overrides monitor.Config
	if err := decode(w, r, &overrides); err != nil {
		writeErr(w, err)
		return
	}
	m, err := h.agent.CreateSiteMonitor(r.Context(), overrides)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"message":    "Monitor created successfully!",
		"monitor_id": m.ID,
		"monitor":    m,
	})
}

func (h *Handler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	var patch monitor.Config
	if err := decode(w, r, &patch); err != nil {
		writeErr(w, err)
		return
	}
	m, err := h.agent.UpdateMonitor(r.Context(), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, m)
}

func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.agent.DeleteMonitor(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]string{"message": "Monitor deleted"})
}

func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	raw, err := h.agent.MonitorResults(r.Context(), r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, raw)
}

func (h *Handler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	raw, err := h.agent.ListMonitors(r.Context(), r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, raw)
}

func (h *Handler) ListPoPs(w http.ResponseWriter, r *http.Request) {
	raw, err := h.agent.ListPoPs(r.Context(), r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, raw)
}

func (h *Handler) VerifyAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.agent.VerifyAPIKey(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]string{"message": "API key is valid!"})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.Settings(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]any{
		"has_api_key":  st.HasAPIKey(),
		"monitor_id":   st.MonitorID,
		"auto_created": st.AutoCreated,
		"show_badge":   st.ShowBadge,
		"configured":   st.Configured(),
	})
}

func (h *Handler) PutAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := decode(w, r, &body); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.agent.SetAPIKey(r.Context(), body.APIKey); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]string{"message": "API key saved"})
}

func (h *Handler) PutBadge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ShowBadge bool `json:"show_badge"`
	}
	if err := decode(w, r, &body); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.agent.SetShowBadge(r.Context(), body.ShowBadge); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]bool{"show_badge": body.ShowBadge})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.agent.Deactivate(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, map[string]string{"message": "Background sync stopped"})
}

type probeParams struct {
	Params struct {
		Target  string `json:"target"`
		Packets int    `json:"packets"`
		URL     string `json:"url"`
		Name    string `json:"name"`
		Type    string `json:"type"`
	} `json:"params"`
}

func (h *Handler) RunPing(w http.ResponseWriter, r *http.Request) {
	var p probeParams
	if err := decode(w, r, &p); err != nil {
		writeErr(w, err)
		return
	}
	h.probeResult(w, r, "ping")(h.agent.ProbePing(r.Context(), p.Params.Target, p.Params.Packets))
}

func (h *Handler) RunHTTP(w http.ResponseWriter, r *http.Request) {
	var p probeParams
	if err := decode(w, r, &p); err != nil {
		writeErr(w, err)
		return
	}
	h.probeResult(w, r, "http")(h.agent.ProbeHTTP(r.Context(), p.Params.URL))
}

func (h *Handler) RunDNS(w http.ResponseWriter, r *http.Request) {
	var p probeParams
	if err := decode(w, r, &p); err != nil {
		writeErr(w, err)
		return
	}
	h.probeResult(w, r, "dns")(h.agent.ProbeDNS(r.Context(), p.Params.Name, p.Params.Type))
}

func (h *Handler) probeResult(w http.ResponseWriter, r *http.Request, kind string) func(*monitor.ProbeResult, error) {
	return func(res *monitor.ProbeResult, err error) {
		if err != nil {
			h.log.Debug("probe failed", zap.String("kind", kind), zap.String("remote", r.RemoteAddr), zap.Error(err))
			writeErr(w, err)
			return
		}
		writeOK(w, res)
	}
}
