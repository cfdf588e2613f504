package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edbennett/daytrader/internal/domain"
)

// Reserved ticker prefixes for currency, index and composite instruments.
// They have no tradable equity bars and are skipped before any fetch.
var reservedPrefixes = []string{"C:", "I:", "X:"}

// FeatureService retrieves the historical bars model features are built
// from. Wide ranges are partitioned into provider-sized windows fetched
// concurrently and merged in chronological order.
type FeatureService struct {
	provider domain.MarketData
	logger   *zap.Logger
}

func NewFeatureService(provider domain.MarketData, logger *zap.Logger) *FeatureService {
	return &FeatureService{provider: provider, logger: logger}
}

// windowFor returns the maximum request span the provider allows for a
// granularity: 12 hours for sub-minute bars, 30 days for minute and hour
// bars, 5 years for daily and coarser.
func windowFor(g domain.Granularity) (time.Duration, error) {
	switch g {
	case domain.GranularitySecond:
		return 12 * time.Hour, nil
	case domain.GranularityMinute, domain.GranularityHour:
		return 30 * 24 * time.Hour, nil
	case domain.GranularityDay, domain.GranularityWeek, domain.GranularityMonth,
		domain.GranularityQuarter, domain.GranularityYear:
		return 5 * 365 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported granularity %q", g)
}

func hasReservedPrefix(symbol string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(symbol, p) {
			return true
		}
	}
	return false
}

// windows partitions [from, to] into adjacent spans of at most width. Each
// window ends a second short of the next to prevent double counting at the
// seams.
func windows(from, to time.Time, width time.Duration) [][2]time.Time {
	var out [][2]time.Time
	for start := from; !start.After(to); start = start.Add(width) {
		end := start.Add(width - time.Second)
		if end.After(to) {
			end = to
		}
		out = append(out, [2]time.Time{start, end})
	}
	return out
}

// Fetch returns all bars for symbol in [from, to] at the given granularity,
// sorted ascending by timestamp with seam duplicates removed. A symbol with
// no data yields an empty result, not an error.
func (s *FeatureService) Fetch(ctx context.Context, symbol string, from, to time.Time, granularity domain.Granularity) ([]domain.Bar, error) {
	if hasReservedPrefix(symbol) {
		s.logger.Debug("skipping non-equity symbol", zap.String("symbol", symbol))
		return nil, nil
	}

	width, err := windowFor(granularity)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	spans := windows(from, to, width)
	results := make([][]domain.Bar, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	for i, span := range spans {
		i, span := i, span
		g.Go(func() error {
			bars, err := s.provider.GetAggregates(gctx, symbol, 1, granularity, span[0], span[1])
			if err != nil {
				return err
			}
			results[i] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	var merged []domain.Bar
	for _, bars := range results {
		merged = append(merged, bars...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	return dedupeBars(merged), nil
}

// dedupeBars drops bars sharing a timestamp with their predecessor. Input
// must already be sorted ascending.
func dedupeBars(bars []domain.Bar) []domain.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// OpeningPrints fetches each symbol's first second-level bar at the session
// open. Symbols with no opening print are absent from the result and are
// dropped from the session's decision set by the caller.
func (s *FeatureService) OpeningPrints(ctx context.Context, symbols []string, open time.Time) map[string]float64 {
	opens := make(map[string]float64)
	for _, symbol := range symbols {
		bars, err := s.Fetch(ctx, symbol, open, open.Add(time.Minute), domain.GranularitySecond)
		if err != nil {
			s.logger.Info("no opening print", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if len(bars) == 0 {
			s.logger.Info("no opening print", zap.String("symbol", symbol))
			continue
		}
		opens[symbol] = bars[0].Open
	}
	return opens
}
