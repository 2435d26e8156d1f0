package util

import (
	"context"
	"time"
)

// Retry calls fn up to maxAttempts times, doubling the wait between attempts
// from baseDelay. It returns nil on the first success, ctx.Err() if cancelled
// while waiting, or the last error once attempts are exhausted. The holiday
// feed fetch is the main caller.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// No wait after the final attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
