package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/edbennett/daytrader/internal/domain"
)

type mockBrokerage struct {
	mu sync.Mutex

	clock    domain.Clock
	clockErr error
	calendar []domain.CalendarDay
	assets   []domain.Asset
	account  domain.Account

	positions    []*domain.Position
	positionsErr error

	submitErrs  []error
	submitCalls int
	submitted   []domain.OrderRequest

	closed         []string
	closeErr       error
	closeAllCalled bool
}

func (m *mockBrokerage) GetClock(ctx context.Context) (*domain.Clock, error) {
	if m.clockErr != nil {
		return nil, m.clockErr
	}
	c := m.clock
	return &c, nil
}

func (m *mockBrokerage) GetCalendar(ctx context.Context, from, to time.Time) ([]domain.CalendarDay, error) {
	return m.calendar, nil
}

func (m *mockBrokerage) GetAssets(ctx context.Context, class string) ([]domain.Asset, error) {
	return m.assets, nil
}

func (m *mockBrokerage) GetAccount(ctx context.Context) (*domain.Account, error) {
	a := m.account
	return &a, nil
}

func (m *mockBrokerage) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.submitCalls < len(m.submitErrs) {
		err = m.submitErrs[m.submitCalls]
	}
	m.submitCalls++
	if err != nil {
		return nil, err
	}

	m.submitted = append(m.submitted, req)
	p := req.Payload()
	return &domain.OrderResult{
		OrderID: fmt.Sprintf("order-%d", m.submitCalls),
		Symbol:  p.Symbol,
		Qty:     p.Qty,
		Side:    p.Side,
		Type:    p.Type,
		Status:  "accepted",
	}, nil
}

func (m *mockBrokerage) GetPositions(ctx context.Context) ([]*domain.Position, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	return m.positions, nil
}

func (m *mockBrokerage) ClosePosition(ctx context.Context, symbol string) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	m.closed = append(m.closed, symbol)

	remaining := m.positions[:0]
	for _, p := range m.positions {
		if p.Symbol != symbol {
			remaining = append(remaining, p)
		}
	}
	m.positions = remaining
	return nil
}

func (m *mockBrokerage) CloseAllPositions(ctx context.Context, cancelOrders bool) error {
	m.closeAllCalled = true
	m.positions = nil
	return nil
}

// fakeClock satisfies SessionClock without touching the network. Refresh
// advances time by step.
type fakeClock struct {
	now       time.Time
	open      bool
	nextOpen  time.Time
	nextClose time.Time
	prevDate  time.Time
	step      time.Duration
}

func (c *fakeClock) Now() time.Time                 { return c.now }
func (c *fakeClock) IsOpen() bool                   { return c.open }
func (c *fakeClock) NextOpen() time.Time            { return c.nextOpen }
func (c *fakeClock) NextClose() time.Time           { return c.nextClose }
func (c *fakeClock) Refresh(ctx context.Context) error {
	c.now = c.now.Add(c.step)
	return nil
}
func (c *fakeClock) PreviousTradingDate(ctx context.Context) (time.Time, error) {
	return c.prevDate, nil
}

type stubPredictor struct {
	out int
	err error
}

func (p stubPredictor) Predict(features []float64) (int, error) { return p.out, p.err }

type mockTxRepo struct {
	failures int
	calls    int
	txs      []*domain.Transaction
}

func (r *mockTxRepo) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	r.calls++
	if r.calls <= r.failures {
		return errors.New("insert failed")
	}
	r.txs = append(r.txs, txs...)
	return nil
}

type mockBarRepo struct {
	bars      []domain.Bar
	upserted  [][]domain.Bar
	upsertErr error
}

func (r *mockBarRepo) UpsertBars(ctx context.Context, bars []domain.Bar) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, bars)
	return nil
}

func (r *mockBarRepo) BarsBetween(ctx context.Context, symbols []string, from, to time.Time) ([]domain.Bar, error) {
	return r.bars, nil
}

type aggCall struct {
	symbol   string
	from, to time.Time
}

type mockMarketData struct {
	mu    sync.Mutex
	calls []aggCall
	serve func(symbol string, from, to time.Time) []domain.Bar
	err   error
}

func (m *mockMarketData) GetAggregates(ctx context.Context, symbol string, multiplier int, granularity domain.Granularity, from, to time.Time) ([]domain.Bar, error) {
	m.mu.Lock()
	m.calls = append(m.calls, aggCall{symbol: symbol, from: from, to: to})
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.serve == nil {
		return nil, nil
	}
	return m.serve(symbol, from, to), nil
}

type mockModelRepo struct {
	records []*domain.ModelRecord
	err     error
}

func (r *mockModelRepo) ActiveModels(ctx context.Context, since time.Time) ([]*domain.ModelRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

func (r *mockModelRepo) UpsertModels(ctx context.Context, records []*domain.ModelRecord) error {
	return nil
}

type mockObjectStore struct {
	downloads int
	err       error
}

func (s *mockObjectStore) Download(ctx context.Context, bucket, object, dest string) error {
	s.downloads++
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte(`{}`), 0o644)
}

func makeDailyBars(symbol string, n int, start time.Time, basePrice float64) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		price := basePrice + float64(i)*0.5
		bars[i] = domain.Bar{
			Symbol:    symbol,
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.25,
			Volume:    1000,
			VWAP:      price,
		}
	}
	return bars
}
