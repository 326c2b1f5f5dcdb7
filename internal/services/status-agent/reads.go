package status_agent

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/NordCoder/latency-agent/internal/cache"
	"github.com/NordCoder/latency-agent/internal/domain/kafka"
	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/obs"
	"go.uber.org/zap"
)

const DashboardURL = "https://latency.global/dashboard/monitors/"

func (s *Service) fetchStats(id int64) cache.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return s.client.GetStats(ctx, id, monitor.DefaultStatsDays)
	}
}

func (s *Service) fetchStatus(id int64) cache.FetchFunc {
	return func(ctx context.Context) (any, error) {
		epoch := s.currentEpoch()
		m, err := s.client.GetMonitor(ctx, id)
		if err != nil {
			return nil, err
		}
		st := monitor.StatusOf(m)
		s.observe(ctx, epoch, id, st)
		return st, nil
	}
}

// observe emits a status change event when liveness flips. Publishing runs in
// the background so a slow broker never holds up cache waiters. A fetch that
// started before the last cache reset is ignored.
func (s *Service) observe(ctx context.Context, epoch uint64, id int64, st monitor.Status) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	prev := s.lastUp
	up := st.IsUp
	s.lastUp = &up
	if prev == nil || *prev == st.IsUp || s.events == nil || s.closed {
		s.mu.Unlock()
		return
	}
	// Add under mu so it can never race the Wait in Deactivate.
	s.pending.Add(1)
	s.mu.Unlock()

	ev := kafka.StatusChanged{
		MonitorID: id,
		Old:       *prev,
		New:       st.IsUp,
		LatencyMS: st.Latency,
		At:        s.clk(),
	}
	go func() {
		defer s.pending.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := s.events.PublishStatusChanged(pctx, ev); err != nil {
			obs.WithTrace(ctx, s.log).Warn("publish status change", zap.Int64("monitor_id", id), zap.Error(err))
		}
	}()
}

// Stats returns the 7-day statistics. force bypasses the cache.
func (s *Service) Stats(ctx context.Context, force bool) (*monitor.Stats, error) {
	st, err := s.configured(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.coord.GetOrRefresh(ctx, cache.KeyStats, s.fetchStats(st.MonitorID), force)
	if err != nil {
		return nil, err
	}
	return v.(*monitor.Stats), nil
}

// RefreshStats is the manual refresh button.
func (s *Service) RefreshStats(ctx context.Context) (*monitor.Stats, error) {
	return s.Stats(ctx, true)
}

func (s *Service) Status(ctx context.Context, force bool) (monitor.Status, error) {
	st, err := s.configured(ctx)
	if err != nil {
		return monitor.Status{}, err
	}
	return s.status(ctx, st.MonitorID, force)
}

func (s *Service) status(ctx context.Context, id int64, force bool) (monitor.Status, error) {
	v, err := s.coord.GetOrRefresh(ctx, cache.KeyStatus, s.fetchStatus(id), force)
	if err != nil {
		return monitor.Status{}, err
	}
	return v.(monitor.Status), nil
}

// SyncStatus is the scheduled refresh. Without a monitor there is nothing to do.
func (s *Service) SyncStatus(ctx context.Context) error {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !st.HasMonitor() {
		s.log.Debug("no monitor configured, sync skipped")
		return nil
	}
	_, err = s.status(ctx, st.MonitorID, true)
	return err
}

// cachedStatus reads the status entry without fetching.
func (s *Service) cachedStatus() (monitor.Status, bool) {
	v, fresh, ok := s.coord.Cached(cache.KeyStatus)
	if !ok || !fresh {
		return monitor.Status{}, false
	}
	return v.(monitor.Status), true
}

type Widget struct {
	MonitorID    int64     `json:"monitor_id"`
	IsUp         bool      `json:"is_up"`
	Uptime       float64   `json:"uptime"`
	UptimeClass  string    `json:"uptime_class"`
	AvgLatency   float64   `json:"avg_latency"`
	TotalChecks  int64     `json:"total_checks"`
	Stale        bool      `json:"stale"`
	FetchedAt    time.Time `json:"fetched_at"`
	DashboardURL string    `json:"dashboard_url"`
}

// Widget builds the dashboard summary. When the stats refresh fails and an
// older entry exists, that entry is returned marked stale together with the
// error.
func (s *Service) Widget(ctx context.Context) (*Widget, error) {
	st, err := s.configured(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.coord.GetOrRefresh(ctx, cache.KeyStats, s.fetchStats(st.MonitorID), false)
	var (
		w     = &Widget{MonitorID: st.MonitorID, DashboardURL: fmt.Sprintf("%s%d", DashboardURL, st.MonitorID)}
		fetch error
	)
	if err != nil {
		e, ok := s.coord.Peek(cache.KeyStats)
		if !ok {
			return nil, err
		}
		stats, fetch = e.Value, err
		w.Stale = true
		w.FetchedAt = e.FetchedAt
	} else if e, ok := s.coord.Peek(cache.KeyStats); ok {
		w.FetchedAt = e.FetchedAt
	}

	b := stats.(*monitor.Stats)
	w.Uptime = b.UptimePercentage
	w.UptimeClass = monitor.UptimeClass(b.UptimePercentage)
	w.AvgLatency = b.AvgLatency
	w.TotalChecks = b.TotalChecks
	if cur, ok := s.cachedStatus(); ok {
		w.IsUp = cur.IsUp
	} else {
		w.IsUp = b.UptimePercentage >= 99
	}
	return w, fetch
}

type BadgeStyle string

const (
	BadgeMinimal  BadgeStyle = "minimal"
	BadgeDefault  BadgeStyle = "badge"
	BadgeDetailed BadgeStyle = "detailed"
)

type Badge struct {
	Style      BadgeStyle `json:"style"`
	Uptime     float64    `json:"uptime"`
	Class      string     `json:"class"`
	Text       string     `json:"text"`
	AvgLatency *float64   `json:"avg_latency,omitempty"`
}

// Badge returns public uptime badge data, or nil when there is nothing to
// show. Public badges never surface errors.
func (s *Service) Badge(ctx context.Context, style BadgeStyle) (*Badge, error) {
	stats, err := s.Stats(ctx, false)
	if err != nil {
		obs.WithTrace(ctx, s.log).Debug("badge hidden", zap.Error(err))
		return nil, nil
	}

	b := &Badge{
		Style:  style,
		Uptime: stats.UptimePercentage,
		Class:  monitor.UptimeClass(stats.UptimePercentage),
	}
	switch style {
	case BadgeMinimal:
		b.Text = fmt.Sprintf("%.2f%% uptime", stats.UptimePercentage)
	case BadgeDetailed:
		avg := math.Round(stats.AvgLatency)
		b.AvgLatency = &avg
		b.Text = fmt.Sprintf("%.2f%%", stats.UptimePercentage)
	default:
		b.Style = BadgeDefault
		b.Text = fmt.Sprintf("%.1f%% uptime", stats.UptimePercentage)
	}
	return b, nil
}

// FooterBadge is the default badge, shown only when the site opted in.
func (s *Service) FooterBadge(ctx context.Context) (*Badge, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !st.ShowBadge || !st.HasMonitor() {
		return nil, nil
	}
	return s.Badge(ctx, BadgeDefault)
}

type Indicator struct {
	IsUp bool   `json:"is_up"`
	Text string `json:"text"`
}

// Indicator reads the status cache only and assumes up when nothing is known.
func (s *Service) Indicator(context.Context) Indicator {
	up := true
	if cur, ok := s.cachedStatus(); ok {
		up = cur.IsUp
	}
	if up {
		return Indicator{IsUp: true, Text: "Online"}
	}
	return Indicator{IsUp: false, Text: "Offline"}
}

type AdminBar struct {
	State string `json:"state"`
	Text  string `json:"text"`
}

func (s *Service) AdminBar(ctx context.Context) (*AdminBar, error) {
	if _, err := s.configured(ctx); err != nil {
		return nil, err
	}
	cur, ok := s.cachedStatus()
	switch {
	case !ok:
		return &AdminBar{State: "unknown", Text: "Unknown"}, nil
	case cur.IsUp:
		return &AdminBar{State: "up", Text: fmt.Sprintf("Up (%dms)", int64(cur.Latency))}, nil
	default:
		return &AdminBar{State: "down", Text: "Down"}, nil
	}
}
