package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	fatal := errors.New("fatal")
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, Policy{
		Attempts:  5,
		Backoff:   ExpoJitter{Base: time.Millisecond},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_HonoursContextBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("again")
	}, Policy{Attempts: 5, Backoff: ExpoJitter{Base: time.Second}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExpoJitter_CapsAtMax(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls, seen := 0, 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, Policy{
		Attempts:  5,
		Backoff:   ExpoJitter{Base: time.Millisecond},
		OnAttempt: func(int, error) { seen++ },
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, seen)
}

func TestDo_ReportsExhaustion(t *testing.T) {
	var last error
	boom := errors.New("boom")
	err := Do(context.Background(), func() error { return boom }, Policy{
		Attempts:  2,
		OnExhaust: func(err error) { last = err },
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, last, boom)
}
