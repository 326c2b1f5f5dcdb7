package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StatusEventPolicy is short on purpose: events are published after a status
// read and must not hold the caller for long.
func StatusEventPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "status_event",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("status event retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("status event retries exhausted", zap.Error(err))
			}
		},
	}
}
