package util

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff calls fn up to maxRetries+1 times, doubling the wait from
// baseDelay after each failure. fn receives the 0-indexed attempt number and
// should return nil on success. A cancelled context short-circuits the wait
// and returns the context error.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		// No wait after the last attempt.
		if attempt == maxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay << attempt):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
