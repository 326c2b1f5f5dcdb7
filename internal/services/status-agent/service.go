package status_agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NordCoder/latency-agent/internal/cache"
	"github.com/NordCoder/latency-agent/internal/domain/kafka"
	"github.com/NordCoder/latency-agent/internal/domain/monitor"
	"github.com/NordCoder/latency-agent/internal/domain/settings"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("api key or monitor not configured")
	ErrNoMonitor     = errors.New("no monitor configured")
	ErrInvalidInput  = errors.New("invalid input")
)

// Site describes the installation being monitored.
type Site struct {
	Name string
	URL  string
}

// Stopper halts the background sync; satisfied by scheduler.Runner.
type Stopper interface {
	Stop(ctx context.Context) error
}

type Deps struct {
	Log      *zap.Logger
	Client   monitor.Client
	Settings settings.Repo
	Coord    *cache.Coordinator
	Events   kafka.StatusEvents
	Site     Site
	Clock    func() time.Time
}

// Service is the presentation-side use case. Cached reads go through the
// coordinator; probes and monitor management talk to the client directly.
type Service struct {
	log      *zap.Logger
	client   monitor.Client
	settings settings.Repo
	coord    *cache.Coordinator
	events   kafka.StatusEvents
	site     Site
	clk      func() time.Time

	mu      sync.Mutex
	sched   Stopper
	lastUp  *bool
	epoch   uint64 // bumped by resetCache
	closed  bool   // set by Deactivate; no events are published afterwards
	pending sync.WaitGroup
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		log:      d.Log.With(zap.String("component", "status-agent")),
		client:   d.Client,
		settings: d.Settings,
		coord:    d.Coord,
		events:   d.Events,
		site:     d.Site,
		clk:      d.Clock,
	}
}

// AttachScheduler registers the background sync so Deactivate can stop it.
func (s *Service) AttachScheduler(st Stopper) {
	s.mu.Lock()
	s.sched = st
	s.mu.Unlock()
}

func (s *Service) configured(ctx context.Context) (*settings.Settings, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !st.Configured() {
		return nil, ErrNotConfigured
	}
	return st, nil
}

func (s *Service) monitorID(ctx context.Context) (int64, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !st.HasMonitor() {
		return 0, ErrNoMonitor
	}
	return st.MonitorID, nil
}

// resetCache drops both cache entries and forgets the last seen liveness, so
// a new monitor does not emit a status change against the old one. Fetches
// started before the reset no longer count as observations.
func (s *Service) resetCache() {
	s.coord.InvalidateAll()
	s.mu.Lock()
	s.lastUp = nil
	s.epoch++
	s.mu.Unlock()
}

func (s *Service) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
