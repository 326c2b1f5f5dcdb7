package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Syncer refreshes the status entry. Implementations treat "nothing to sync"
// as success.
type Syncer interface {
	SyncStatus(ctx context.Context) error
}

var (
	mTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_ticks_total", Help: "Background status sync ticks that ran.",
	})
	mSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_ticks_skipped_total", Help: "Ticks skipped because the previous one was still running.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_errors_total", Help: "Background status sync failures.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "sync_tick_duration_seconds", Help: "Background status sync duration.",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log *zap.Logger
	UC  Syncer
	Cfg *config.SyncCfg

	state atomic.Int32

	mu   sync.Mutex
	cron *cron.Cron
}

func New(log *zap.Logger, uc Syncer, cfg *config.SyncCfg) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		Log: log.With(zap.String("component", "scheduler")),
		UC:  uc,
		Cfg: cfg,
	}
}

func (r *Runner) State() State { return State(r.state.Load()) }

// Tick runs one sync unless one is already running. It reports whether the
// sync ran. Failures are logged and swallowed.
func (r *Runner) Tick(ctx context.Context) bool {
	if !r.state.CompareAndSwap(int32(Idle), int32(Running)) {
		mSkipped.Inc()
		r.Log.Debug("previous sync still running, tick skipped")
		return false
	}
	defer r.state.Store(int32(Idle))

	tr := otel.Tracer("scheduler.runner")
	ctx, span := tr.Start(ctx, "scheduler.tick")
	defer span.End()

	start := time.Now()
	mTicks.Inc()
	if err := r.UC.SyncStatus(ctx); err != nil {
		mErr.Inc()
		span.RecordError(err)
		span.SetAttributes(attribute.String("sync.status", "error"))
		r.Log.Warn("status sync failed", zap.Error(err))
	} else {
		span.SetAttributes(attribute.String("sync.status", "ok"))
	}
	mTickDur.Observe(time.Since(start).Seconds())
	return true
}

// Start schedules Tick every Cfg.Interval. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	interval := r.Cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	logger := cronLogger{r.Log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule status sync: %w", err)
	}
	c.Start()
	r.cron = c
	r.Log.Info("status sync scheduled", zap.Duration("interval", interval))

	if r.Cfg.RunOnStart {
		go r.Tick(ctx)
	}
	return nil
}

// Stop unschedules the sync and waits for a running tick, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		r.Log.Info("status sync stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), r.Cfg.StopTimeout)
	defer cancel()
	_ = r.Stop(stopCtx)
	return ctx.Err()
}
