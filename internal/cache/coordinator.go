package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc func(ctx context.Context) (any, error)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "status_cache_hits_total", Help: "Fresh cache reads served without a fetch.",
	}, []string{"key"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "status_cache_misses_total", Help: "Reads that found no fresh entry.",
	}, []string{"key"})
	cacheShared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "status_cache_shared_total", Help: "Reads that received the result of another caller's fetch.",
	}, []string{"key"})
	cacheFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "status_cache_fetches_total", Help: "Outbound refreshes by outcome.",
	}, []string{"key", "outcome"})
	cacheFetchDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "status_cache_fetch_duration_seconds",
		Help:    "Duration of outbound refreshes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"key"})
)

// Coordinator is the only writer of the Store. Concurrent misses for one key
// collapse into a single fetch whose outcome every caller receives.
type Coordinator struct {
	store  *Store
	flight singleflight.Group
	log    *zap.Logger
	tracer trace.Tracer
}

func NewCoordinator(store *Store, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:  store,
		log:    log.With(zap.String("component", "cache.coordinator")),
		tracer: otel.Tracer("cache.coordinator"),
	}
}

// GetOrRefresh returns the cached value for key when fresh. Otherwise it runs
// fetch, or waits for the fetch already running for key. force drops the
// entry before looking, so a fetch always happens.
//
// A failed fetch leaves the previous entry untouched; the error goes to the
// leader and every waiter. The fetch is detached from ctx cancellation and
// bounded only by the remote client's timeout.
func (c *Coordinator) GetOrRefresh(ctx context.Context, key Key, fetch FetchFunc, force bool) (any, error) {
	if force {
		c.store.invalidate(key)
	}
	if v, fresh, ok := c.store.Get(key); ok && fresh {
		cacheHits.WithLabelValues(string(key)).Inc()
		return v, nil
	}
	cacheMisses.WithLabelValues(string(key)).Inc()

	v, err, shared := c.flight.Do(string(key), func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), key, fetch, force)
	})
	if shared {
		cacheShared.WithLabelValues(string(key)).Inc()
	}
	return v, err
}

func (c *Coordinator) refresh(ctx context.Context, key Key, fetch FetchFunc, force bool) (any, error) {
	// A previous flight may have landed between our miss and taking the lead.
	if !force {
		if v, fresh, ok := c.store.Get(key); ok && fresh {
			cacheHits.WithLabelValues(string(key)).Inc()
			return v, nil
		}
	}

	ctx, span := c.tracer.Start(ctx, "cache.refresh", trace.WithAttributes(
		attribute.String("cache.key", string(key)),
		attribute.Bool("cache.force", force),
	))
	defer span.End()

	gen := c.store.generation()
	start := time.Now()
	v, err := fetch(ctx)
	cacheFetchDur.WithLabelValues(string(key)).Observe(time.Since(start).Seconds())
	if err != nil {
		cacheFetches.WithLabelValues(string(key), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("refresh failed, cache left as is", zap.String("key", string(key)), zap.Error(err))
		return nil, err
	}

	cacheFetches.WithLabelValues(string(key), "ok").Inc()
	if !c.store.putIf(gen, key, v, c.store.clock.Now()) {
		// Monitor deleted or agent deactivated mid-flight: hand the value to
		// the callers but keep it out of the cache.
		c.log.Debug("cache invalidated during refresh, result not stored", zap.String("key", string(key)))
		return v, nil
	}
	c.log.Debug("cache refreshed", zap.String("key", string(key)), zap.Bool("force", force))
	return v, nil
}

// Peek exposes the last stored entry, fresh or not, for last-known-good display.
func (c *Coordinator) Peek(key Key) (Entry, bool) { return c.store.Peek(key) }

// Cached returns the stored value without ever fetching.
func (c *Coordinator) Cached(key Key) (value any, fresh bool, ok bool) { return c.store.Get(key) }

func (c *Coordinator) Invalidate(key Key) { c.store.invalidate(key) }

// InvalidateAll evicts every entry; used on monitor deletion, deactivation and uninstall.
func (c *Coordinator) InvalidateAll() { c.store.invalidateAll() }
