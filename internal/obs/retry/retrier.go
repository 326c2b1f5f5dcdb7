package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

// ExpoJitter doubles Base per attempt up to Max and spreads each wait by
// +/- Jitter (a fraction of the wait).
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	attempt = max(attempt, 0)
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 {
		d = math.Min(d, float64(b.Max))
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	retryCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_calls_total",
		Help: "Single attempts made under a retry policy, by outcome.",
	}, []string{"policy", "outcome"})
	retryGaveUp = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_gave_up_total",
		Help: "Operations that failed after their last allowed attempt.",
	}, []string{"policy"})
	retryElapsed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_elapsed_seconds",
		Help:    "Wall time of a retried operation, waits included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"policy"})
)

func (p Policy) name() string {
	if p.Name == "" {
		return "default"
	}
	return p.Name
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done while waiting. The last error is returned.
func Do(ctx context.Context, fn func() error, p Policy) error {
	name := p.name()
	start := time.Now()
	defer func() { retryElapsed.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	attempts := max(p.Attempts, 1)
	span := trace.SpanFromContext(ctx)

	for i := 0; ; i++ {
		err := fn()
		if err == nil {
			retryCalls.WithLabelValues(name, "ok").Inc()
			return nil
		}
		retryCalls.WithLabelValues(name, "error").Inc()
		span.AddEvent("retry.attempt", trace.WithAttributes(
			attribute.String("retry.policy", name),
			attribute.Int("retry.attempt", i+1),
			attribute.String("error", err.Error()),
		))
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}

		if i+1 >= attempts || !p.retryable(err) {
			retryGaveUp.WithLabelValues(name).Inc()
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			return err
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff.Next(i)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
