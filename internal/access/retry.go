package access

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryOptions configures retry behavior for tool invocations.
type RetryOptions struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryOptions provides sensible default retry settings.
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:       3,
	InitialBackoff:    200 * time.Millisecond,
	MaxBackoff:        5 * time.Second,
	BackoffMultiplier: 2.0,
}

// isRetryableError reports whether an error should trigger another attempt.
// Only timeouts qualify; a hard tool failure repeats identically.
func isRetryableError(err error) bool {
	var timeout *ToolTimeoutError
	return errors.As(err, &timeout)
}

// withRetry executes op with exponential backoff on retryable errors.
func withRetry[T any](ctx context.Context, log *zap.SugaredLogger, opts RetryOptions, op func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return result, lastErr
		default:
		}

		result, lastErr = op(ctx)
		if lastErr == nil {
			return result, nil
		}
		if !isRetryableError(lastErr) {
			return result, lastErr
		}

		backoff := opts.InitialBackoff * time.Duration(math.Pow(opts.BackoffMultiplier, float64(attempt)))
		if backoff > opts.MaxBackoff {
			backoff = opts.MaxBackoff
		}
		log.Warnw("tool invocation failed, retrying",
			"attempt", attempt+1, "backoff", backoff, "error", lastErr)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, lastErr
}
