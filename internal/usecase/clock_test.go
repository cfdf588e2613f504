package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

func TestNewBrokerClockFailsClosedWhenCalendarUnreachable(t *testing.T) {
	broker := &mockBrokerage{clockErr: errors.New("connection refused")}

	_, err := NewBrokerClock(context.Background(), broker, zap.NewNop())
	assert.ErrorContains(t, err, "session clock")
}

func TestBrokerClockRefreshUpdatesState(t *testing.T) {
	open := time.Date(2026, 8, 31, 13, 30, 0, 0, time.UTC)
	broker := &mockBrokerage{clock: domain.Clock{
		Timestamp: open.Add(-time.Hour),
		IsOpen:    false,
		NextOpen:  open,
		NextClose: open.Add(6*time.Hour + 30*time.Minute),
	}}

	clock, err := NewBrokerClock(context.Background(), broker, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, clock.IsOpen())
	assert.Equal(t, open, clock.NextOpen())

	broker.clock.IsOpen = true
	broker.clock.Timestamp = open.Add(time.Minute)
	require.NoError(t, clock.Refresh(context.Background()))
	assert.True(t, clock.IsOpen())
	assert.Equal(t, open.Add(time.Minute), clock.Now())
}

func TestPreviousTradingDateSkipsWeekend(t *testing.T) {
	// Monday morning; the previous session is the prior Friday.
	monday := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	friday := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	broker := &mockBrokerage{
		clock: domain.Clock{Timestamp: monday},
		calendar: []domain.CalendarDay{
			{Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
			{Date: friday},
			{Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
		},
	}

	clock, err := NewBrokerClock(context.Background(), broker, zap.NewNop())
	require.NoError(t, err)

	prev, err := clock.PreviousTradingDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, friday, prev)
}

func TestPreviousTradingDateEmptyCalendar(t *testing.T) {
	broker := &mockBrokerage{clock: domain.Clock{
		Timestamp: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}}

	clock, err := NewBrokerClock(context.Background(), broker, zap.NewNop())
	require.NoError(t, err)

	_, err = clock.PreviousTradingDate(context.Background())
	assert.Error(t, err)
}

func TestOpensToday(t *testing.T) {
	now := time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)

	assert.True(t, OpensToday(&fakeClock{now: now, open: true}))
	assert.True(t, OpensToday(&fakeClock{now: now, nextOpen: now.Add(2 * time.Hour)}))
	// Weekend: next open is tomorrow or later.
	assert.False(t, OpensToday(&fakeClock{now: now, nextOpen: now.AddDate(0, 0, 1)}))
}
