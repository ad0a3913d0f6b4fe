package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sqve/spaces/internal/logger"
)

// ErrDeadlineExceeded is returned when MaxElapsed passes before the operation
// succeeds. It wraps the last operation error.
var ErrDeadlineExceeded = errors.New("retry deadline exceeded")

type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts including the first; 0 means unlimited.
	MaxElapsed    time.Duration // Total time budget; 0 means unlimited.
	BaseDelay     time.Duration // Base delay for exponential backoff.
	MaxDelay      time.Duration // Maximum delay between retries.
	JitterEnabled bool          // Whether to add jitter to prevent thundering herd.
}

// PollConfig polls until timeout elapses, starting at 25ms and backing off to
// at most 500ms between attempts.
func PollConfig(timeout time.Duration) RetryConfig {
	return RetryConfig{
		MaxElapsed:    timeout,
		BaseDelay:     25 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		JitterEnabled: true,
	}
}

// RetryableError marks errors that are worth another attempt. Errors that do
// not implement it stop the loop immediately.
type RetryableError interface {
	IsRetryable() bool
}

func ExecuteWithRetry(ctx context.Context, retryConfig RetryConfig, operation func() error) error {
	return ExecuteWithRetryContext(ctx, retryConfig, func(ctx context.Context) error {
		return operation()
	})
}

func ExecuteWithRetryContext(ctx context.Context, retryConfig RetryConfig, operation func(context.Context) error) error {
	var lastErr error
	start := time.Now()

	for attempt := 1; retryConfig.MaxAttempts == 0 || attempt <= retryConfig.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry operation cancelled before attempt %d: %w", attempt, ctx.Err())
		default:
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("Operation succeeded after %d attempts", attempt)
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err, attempt, retryConfig.MaxAttempts) {
			return err
		}

		delay := calculateDelay(attempt, retryConfig)

		if retryConfig.MaxElapsed > 0 {
			remaining := retryConfig.MaxElapsed - time.Since(start)
			if remaining <= 0 {
				return fmt.Errorf("%w after %d attempts: %w", ErrDeadlineExceeded, attempt, lastErr)
			}
			if delay > remaining {
				delay = remaining
			}
		}

		logger.Debug("Attempt %d failed, retrying in %s: %v", attempt, delay, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry operation cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", retryConfig.MaxAttempts, lastErr)
}

func shouldRetry(err error, attempt, maxAttempts int) bool {
	if maxAttempts > 0 && attempt >= maxAttempts {
		return false
	}

	var retryableErr RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}

	return false
}

func calculateDelay(attempt int, retryConfig RetryConfig) time.Duration {
	// Calculate exponential backoff: baseDelay * 2^(attempt-1).
	exponentialDelay := float64(retryConfig.BaseDelay) * math.Pow(2, float64(attempt-1))

	if exponentialDelay > float64(retryConfig.MaxDelay) {
		exponentialDelay = float64(retryConfig.MaxDelay)
	}

	delay := time.Duration(exponentialDelay)

	// Add jitter if enabled (±25% random variation).
	if retryConfig.JitterEnabled {
		jitter := float64(delay) * 0.25 * (rand.Float64()*2 - 1) // nolint:gosec // Jitter does not need crypto randomness
		delay = time.Duration(float64(delay) + jitter)

		if delay < 0 {
			delay = retryConfig.BaseDelay
		}
	}

	return delay
}
