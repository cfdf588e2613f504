package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, 0, nil, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversAfterFailure(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, 0, nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, 0, nil, func() error {
		calls++
		return errors.New("still broken")
	})
	assert.ErrorContains(t, err, "still broken")
	assert.Equal(t, 2, calls)
}

func TestRetryPredicateStopsEarly(t *testing.T) {
	permanent := errors.New("rejected")
	calls := 0
	err := Retry(context.Background(), 5, 0, func(err error) bool { return false }, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, time.Minute, nil, func() error {
		calls++
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
