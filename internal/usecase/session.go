package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// SessionParams collects the strategy knobs one batch run trades under.
type SessionParams struct {
	HistoryLookbackDays int
	ModelFreshness      time.Duration
	// SettleDelay holds trading back after the opening bell so the
	// opening print and early volatility have settled.
	SettleDelay time.Duration
	Monitor     MonitorParams
}

// Session is one single-shot batch run of the signal-to-execution pipeline:
// gate on the calendar, load ensembles, decide, size, submit, monitor until
// close.
type Session struct {
	clock     SessionClock
	brokerage domain.Brokerage
	bars      domain.BarRepository
	features  *FeatureService
	ensemble  *Ensemble
	signals   *SignalService
	sizer     *Sizer
	executor  *Executor
	ledger    *Ledger
	params    SessionParams
	logger    *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewSession(
	clock SessionClock,
	brokerage domain.Brokerage,
	bars domain.BarRepository,
	features *FeatureService,
	ensemble *Ensemble,
	signals *SignalService,
	sizer *Sizer,
	executor *Executor,
	ledger *Ledger,
	params SessionParams,
	logger *zap.Logger,
) *Session {
	return &Session{
		clock:     clock,
		brokerage: brokerage,
		bars:      bars,
		features:  features,
		ensemble:  ensemble,
		signals:   signals,
		sizer:     sizer,
		executor:  executor,
		ledger:    ledger,
		params:    params,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

func (s *Session) Run(ctx context.Context) error {
	defer s.ensemble.Cleanup()

	if !OpensToday(s.clock) {
		s.logger.Info("market does not open today, exiting",
			zap.Time("next_open", s.clock.NextOpen()))
		return nil
	}

	universe, err := LoadUniverse(ctx, s.brokerage, s.logger)
	if err != nil {
		return err
	}

	sets, err := s.ensemble.Load(ctx, s.clock.Now().Add(-s.params.ModelFreshness))
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("session: no symbols with a complete ensemble")
	}

	symbols := make([]string, 0, len(sets))
	for symbol := range sets {
		if !universe.Contains(symbol) {
			s.logger.Info("symbol not tradable, excluding", zap.String("symbol", symbol))
			delete(sets, symbol)
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("session: no tradable symbols after filtering")
	}

	history, err := s.loadHistory(ctx, symbols)
	if err != nil {
		return err
	}

	sessionOpen, err := s.waitForOpen(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("getting market open data", zap.Time("session_open", sessionOpen))
	opens := s.features.OpeningPrints(ctx, symbols, sessionOpen)

	decisions := s.signals.Decide(SignalInputs{
		Sets:         sets,
		History:      history,
		Opens:        opens,
		Shortable:    universe.Shortable,
		SessionStart: s.clock.Now(),
	})

	// Cash is read once and treated as a session-scoped snapshot; order
	// submission never races against a live-updated balance.
	account, err := s.brokerage.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("session: cash unavailable: %w", err)
	}

	sized := s.sizer.Size(decisions, account.Cash)
	if len(sized) == 0 {
		s.logger.Info("no orders to place this session")
		return nil
	}

	modelIDs := make(map[string]string)
	for _, d := range sized {
		if _, err := s.executor.Submit(ctx, d, domain.OrderLimit, domain.TIFDay); err != nil {
			// Already logged; the rest of the universe still trades.
			continue
		}
		modelIDs[d.Symbol] = d.ModelID
	}

	s.logger.Info("monitoring performance", zap.Int("orders", len(modelIDs)))
	monitor := NewMonitor(s.brokerage, s.ledger, s.clock, s.params.Monitor, modelIDs, s.logger)
	return monitor.Run(ctx)
}

// loadHistory reads the feature lookback window of daily bars, grouped per
// symbol in ascending order.
func (s *Session) loadHistory(ctx context.Context, symbols []string) (map[string][]domain.Bar, error) {
	prev, err := s.clock.PreviousTradingDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	from := prev.AddDate(0, 0, -s.params.HistoryLookbackDays)

	bars, err := s.bars.BarsBetween(ctx, symbols, from, prev.Add(24*time.Hour-time.Second))
	if err != nil {
		return nil, fmt.Errorf("session: history: %w", err)
	}

	history := make(map[string][]domain.Bar)
	for _, b := range bars {
		history[b.Symbol] = append(history[b.Symbol], b)
	}
	return history, nil
}

// waitForOpen blocks until the opening bell plus the settle delay, and
// returns the session's open time.
func (s *Session) waitForOpen(ctx context.Context) (time.Time, error) {
	if s.clock.IsOpen() {
		s.logger.Info("market already open, commencing immediately")
		return s.sessionOpen(ctx)
	}

	wait := s.clock.NextOpen().Sub(s.clock.Now()) + s.params.SettleDelay
	s.logger.Info("waiting for market open", zap.Duration("wait", wait))
	if err := s.sleep(ctx, wait); err != nil {
		return time.Time{}, err
	}
	open := s.clock.NextOpen()
	if err := s.clock.Refresh(ctx); err != nil {
		return time.Time{}, fmt.Errorf("session: %w", err)
	}
	return open, nil
}

func (s *Session) sessionOpen(ctx context.Context) (time.Time, error) {
	now := s.clock.Now()
	days, err := s.brokerage.GetCalendar(ctx, now.AddDate(0, 0, -1), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("session: open time: %w", err)
	}
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("session: open time: empty calendar")
	}
	return days[len(days)-1].Open, nil
}
