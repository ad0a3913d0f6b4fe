package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busyError struct{ retryable bool }

func (e busyError) Error() string     { return "busy" }
func (e busyError) IsRetryable() bool { return e.retryable }

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	}
}

func TestPollConfig(t *testing.T) {
	config := PollConfig(2 * time.Minute)

	assert.Zero(t, config.MaxAttempts)
	assert.Equal(t, 2*time.Minute, config.MaxElapsed)
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(3), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("success after retryable failure", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(3), func() error {
			calls++
			if calls < 2 {
				return busyError{retryable: true}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		want := errors.New("permission denied")
		err := ExecuteWithRetry(context.Background(), fastConfig(3), func() error {
			calls++
			return want
		})

		assert.ErrorIs(t, err, want)
		assert.Equal(t, 1, calls)
	})

	t.Run("max attempts exceeded", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(2), func() error {
			calls++
			return busyError{retryable: true}
		})

		require.Error(t, err)
		assert.Equal(t, 2, calls)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})

	t.Run("deadline exceeded with unlimited attempts", func(t *testing.T) {
		config := fastConfig(0)
		config.MaxElapsed = 60 * time.Millisecond

		start := time.Now()
		err := ExecuteWithRetry(context.Background(), config, func() error {
			return busyError{retryable: true}
		})

		assert.ErrorIs(t, err, ErrDeadlineExceeded)
		assert.ErrorAs(t, err, new(busyError))
		assert.GreaterOrEqual(t, time.Since(start), config.MaxElapsed)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := ExecuteWithRetry(ctx, fastConfig(0), func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return busyError{retryable: true}
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(busyError{retryable: true}, 1, 3))
	assert.False(t, shouldRetry(busyError{retryable: true}, 3, 3))
	assert.True(t, shouldRetry(busyError{retryable: true}, 100, 0))
	assert.False(t, shouldRetry(busyError{retryable: false}, 1, 3))
	assert.False(t, shouldRetry(errors.New("plain"), 1, 3))
}

func TestCalculateDelay(t *testing.T) {
	config := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(1, config))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(2, config))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(3, config))
	assert.Equal(t, time.Second, calculateDelay(10, config))
}

func TestCalculateDelayWithJitter(t *testing.T) {
	config := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterEnabled: true}

	for i := 0; i < 50; i++ {
		delay := calculateDelay(2, config)
		assert.GreaterOrEqual(t, delay, 150*time.Millisecond)
		assert.LessOrEqual(t, delay, 250*time.Millisecond)
	}
}
