package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// PositionState tracks one position through the monitoring state machine.
type PositionState int

const (
	StateOpen PositionState = iota
	StateMonitoring
	StateClosing
	StateClosed
)

func (s PositionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateMonitoring:
		return "monitoring"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type MonitorParams struct {
	TakeProfitPct float64
	StopLossPct   float64
	PollInterval  time.Duration
	// GuardInterval is the margin before session close inside which every
	// still-open position is liquidated unconditionally, so the final
	// close always has time to execute.
	GuardInterval time.Duration
	Broker        string
	Paper         bool
}

// Monitor polls open positions once a session's orders are placed and
// closes any whose unrealized move crosses the take-profit or stop-loss
// threshold, until the guard interval before session close forces
// liquidation of everything. The loop is single threaded: sleep, poll,
// evaluate, act.
type Monitor struct {
	brokerage domain.Brokerage
	ledger    *Ledger
	clock     SessionClock
	params    MonitorParams
	logger    *zap.Logger

	// modelIDs maps symbols to the model that triggered entry, while that
	// model is still retained in this session's eligible set.
	modelIDs map[string]string
	states   map[string]PositionState

	sleep func(ctx context.Context, d time.Duration) error
}

func NewMonitor(brokerage domain.Brokerage, ledger *Ledger, clock SessionClock, params MonitorParams, modelIDs map[string]string, logger *zap.Logger) *Monitor {
	if modelIDs == nil {
		modelIDs = make(map[string]string)
	}
	return &Monitor{
		brokerage: brokerage,
		ledger:    ledger,
		clock:     clock,
		params:    params,
		logger:    logger,
		modelIDs:  modelIDs,
		states:    make(map[string]PositionState),
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run drives the poll loop. The only exit conditions are the wall clock
// reaching the guard interval before close and an unrecoverable brokerage
// error; there is no user-initiated cancel for a single-shot session.
func (m *Monitor) Run(ctx context.Context) error {
	for m.clock.Now().Before(m.clock.NextClose().Add(-m.params.GuardInterval)) {
		if err := m.tick(ctx); err != nil {
			return fmt.Errorf("risk monitor: %w", err)
		}

		if err := m.sleep(ctx, m.params.PollInterval); err != nil {
			return err
		}
		if err := m.clock.Refresh(ctx); err != nil {
			return fmt.Errorf("risk monitor: clock refresh: %w", err)
		}
		m.logger.Info("market time", zap.Time("now", m.clock.Now()))
	}

	return m.Liquidate(ctx)
}

// tick is one poll: re-read positions and evaluate each against the
// thresholds. Transient read failures skip the tick; the next poll retries
// with a fresh request.
func (m *Monitor) tick(ctx context.Context) error {
	positions, err := m.brokerage.GetPositions(ctx)
	if err != nil {
		if domain.IsTransient(err) {
			m.logger.Warn("transient position read failure, skipping tick", zap.Error(err))
			return nil
		}
		return err
	}

	for _, pos := range positions {
		state := m.states[pos.Symbol]
		if state == StateClosing || state == StateClosed {
			continue
		}
		if state == StateOpen {
			m.states[pos.Symbol] = StateMonitoring
		}

		movement, reason := m.evaluate(pos)
		m.logger.Info("checked position",
			zap.String("symbol", pos.Symbol),
			zap.String("side", string(pos.Side)),
			zap.Float64("movement_pct", movement))

		if reason != "" {
			m.closePosition(ctx, pos, movement, reason)
		}
	}
	return nil
}

// evaluate returns the sign-adjusted movement percentage and a close
// reason, empty when neither threshold is crossed. The venue reports short
// positions against a negated basis, so the raw movement is flipped for
// shorts before the threshold comparison.
func (m *Monitor) evaluate(pos *domain.Position) (float64, string) {
	goneShort := pos.Side == domain.SideShort
	movement := pos.MovementPct()
	if goneShort {
		movement = -movement
	}

	switch {
	case (movement >= m.params.TakeProfitPct && !goneShort) ||
		(-movement >= m.params.TakeProfitPct && goneShort):
		return movement, "take_profit"
	case (movement >= m.params.StopLossPct && goneShort) ||
		(-movement >= m.params.StopLossPct && !goneShort):
		return movement, "stop_loss"
	}
	return movement, ""
}

func (m *Monitor) closePosition(ctx context.Context, pos *domain.Position, movement float64, reason string) {
	m.states[pos.Symbol] = StateClosing
	m.logger.Info("closing position",
		zap.String("symbol", pos.Symbol),
		zap.Float64("movement_pct", movement),
		zap.String("reason", reason))

	err := Retry(ctx, 2, 0, domain.IsTransient, func() error {
		return m.brokerage.ClosePosition(ctx, pos.Symbol)
	})
	if err != nil {
		// Leave the position monitored; the next poll re-evaluates it.
		m.logger.Warn("close failed, will re-evaluate next poll",
			zap.String("symbol", pos.Symbol), zap.Error(err))
		m.states[pos.Symbol] = StateMonitoring
		return
	}

	m.ledger.Record(ctx, m.transactionFor(pos, movement))
	m.states[pos.Symbol] = StateClosed
}

// Liquidate closes every still-open position unconditionally, then sweeps
// the account with a cancel-orders close-all. Called when the guard
// interval before session close is reached.
func (m *Monitor) Liquidate(ctx context.Context) error {
	m.logger.Info("reached end of trading, closing all positions")

	positions, err := m.brokerage.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("liquidate: %w", err)
	}

	for _, pos := range positions {
		if m.states[pos.Symbol] == StateClosed {
			continue
		}
		movement, _ := m.evaluate(pos)
		m.closePosition(ctx, pos, movement, "session_close")
	}

	if err := m.brokerage.CloseAllPositions(ctx, true); err != nil {
		return fmt.Errorf("liquidate: %w", err)
	}
	return nil
}

func (m *Monitor) transactionFor(pos *domain.Position, movement float64) *domain.Transaction {
	var modelID *string
	if id, ok := m.modelIDs[pos.Symbol]; ok {
		modelID = &id
	}

	now := m.clock.Now()
	return &domain.Transaction{
		TransactionID: uuid.NewString(),
		Description: fmt.Sprintf("Limit: for %.2f shares at %.2f in %s",
			pos.Quantity, movement, pos.Symbol),
		Ticker:     pos.Symbol,
		Side:       pos.Side,
		OrderType:  domain.OrderLimit,
		EntryPrice: pos.CostBasis,
		ExitPrice:  pos.MarketValue,
		Currency:   "USD",
		Quantity:   pos.Quantity,
		Exchange:   pos.Exchange,
		Broker:     m.params.Broker,
		Paper:      m.params.Paper,
		Live:       !m.params.Paper,
		ModelID:    modelID,
		PlacedAt:   now,
		AcceptedAt: now,
		CreatedAt:  now,
	}
}
