package usecase

import (
	"context"
	"time"
)

// Retry runs op up to attempts times. retryIf decides whether a failure is
// worth another attempt; nil means every failure is. Backoff doubles after
// each failed attempt; zero backoff retries immediately. The last error is
// returned when attempts are exhausted.
func Retry(ctx context.Context, attempts int, backoff time.Duration, retryIf func(error) bool, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if retryIf != nil && !retryIf(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff << i):
			}
		}
	}
	return err
}
