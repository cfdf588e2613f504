package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// SessionClock is the single source of session truth. No pipeline component
// reads system time for trading decisions; everything goes through here so
// tests can inject a fake.
type SessionClock interface {
	Now() time.Time
	IsOpen() bool
	NextOpen() time.Time
	NextClose() time.Time
	Refresh(ctx context.Context) error
	PreviousTradingDate(ctx context.Context) (time.Time, error)
}

// BrokerClock backs SessionClock with the brokerage calendar service.
type BrokerClock struct {
	brokerage domain.Brokerage
	state     domain.Clock
	logger    *zap.Logger
}

// NewBrokerClock fetches the venue clock once. An unreachable calendar
// service fails the construction: the run aborts before any order is placed.
func NewBrokerClock(ctx context.Context, brokerage domain.Brokerage, logger *zap.Logger) (*BrokerClock, error) {
	c := &BrokerClock{brokerage: brokerage, logger: logger}
	if err := c.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("session clock: %w", err)
	}
	return c, nil
}

func (c *BrokerClock) Refresh(ctx context.Context) error {
	clock, err := c.brokerage.GetClock(ctx)
	if err != nil {
		return err
	}
	c.state = *clock
	return nil
}

func (c *BrokerClock) Now() time.Time       { return c.state.Timestamp }
func (c *BrokerClock) IsOpen() bool         { return c.state.IsOpen }
func (c *BrokerClock) NextOpen() time.Time  { return c.state.NextOpen }
func (c *BrokerClock) NextClose() time.Time { return c.state.NextClose }

// PreviousTradingDate resolves the most recent completed session day,
// skipping weekends and venue holidays.
func (c *BrokerClock) PreviousTradingDate(ctx context.Context) (time.Time, error) {
	now := c.state.Timestamp
	days, err := c.brokerage.GetCalendar(ctx, now.AddDate(0, 0, -14), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("previous trading date: %w", err)
	}

	today := now.Truncate(24 * time.Hour)
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Date.Before(today) {
			return days[i].Date, nil
		}
	}
	return time.Time{}, fmt.Errorf("previous trading date: no sessions in the last 14 days")
}

// OpensToday reports whether the next session open falls on the current
// calendar day. A batch run exits early when it does not.
func OpensToday(clock SessionClock) bool {
	if clock.IsOpen() {
		return true
	}
	now, nextOpen := clock.Now(), clock.NextOpen()
	y1, m1, d1 := now.Date()
	y2, m2, d2 := nextOpen.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
