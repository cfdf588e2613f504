package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/edbennett/daytrader/internal/domain"
)

// BackfillService bulk-loads historical daily bars into the store so the
// signal pass reads features locally instead of hammering the provider.
// Symbols run concurrently under a semaphore cap; one symbol's failure is
// logged and skipped.
type BackfillService struct {
	features    *FeatureService
	bars        domain.BarRepository
	concurrency int64
	logger      *zap.Logger
}

func NewBackfillService(features *FeatureService, bars domain.BarRepository, concurrency int, logger *zap.Logger) *BackfillService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BackfillService{
		features:    features,
		bars:        bars,
		concurrency: int64(concurrency),
		logger:      logger,
	}
}

// Run fetches [from, to] daily bars for every symbol and upserts them.
// Upserts make re-runs idempotent. Returns the number of symbols that
// loaded successfully.
func (s *BackfillService) Run(ctx context.Context, symbols []string, from, to time.Time) int {
	sem := semaphore.NewWeighted(s.concurrency)
	done := make(chan bool, len(symbols))

	for _, symbol := range symbols {
		symbol := symbol
		if err := sem.Acquire(ctx, 1); err != nil {
			done <- false
			continue
		}
		go func() {
			defer sem.Release(1)
			done <- s.backfillSymbol(ctx, symbol, from, to)
		}()
	}

	loaded := 0
	for range symbols {
		if <-done {
			loaded++
		}
	}
	s.logger.Info("backfill complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("loaded", loaded))
	return loaded
}

func (s *BackfillService) backfillSymbol(ctx context.Context, symbol string, from, to time.Time) bool {
	bars, err := s.features.Fetch(ctx, symbol, from, to, domain.GranularityDay)
	if err != nil {
		s.logger.Warn("backfill fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	if len(bars) == 0 {
		s.logger.Info("no bars for symbol", zap.String("symbol", symbol))
		return true
	}

	err = Retry(ctx, 4, 250*time.Millisecond, nil, func() error {
		return s.bars.UpsertBars(ctx, bars)
	})
	if err != nil {
		s.logger.Error("backfill insert failed after retries",
			zap.String("symbol", symbol), zap.Error(err))
		return false
	}

	s.logger.Info("backfilled symbol", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
	return true
}
