package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

func eligibleDecision(symbol string, dir domain.Direction, price float64) domain.Decision {
	return domain.Decision{Symbol: symbol, Direction: dir, EntryPrice: price, Eligible: true}
}

func TestSizeSplitsCapitalAcrossDecisions(t *testing.T) {
	s := NewSizer(2.0, zap.NewNop())

	decisions := []domain.Decision{
		eligibleDecision("AAPL", domain.DirectionLong, 200),
		eligibleDecision("TSLA", domain.DirectionShort, 250),
		eligibleDecision("MSFT", domain.DirectionLong, 400),
	}

	sized := s.Size(decisions, 30000)
	require.Len(t, sized, 3)

	// floor(2 * 30000 / price / 3)
	assert.Equal(t, int64(100), sized[0].Quantity)
	assert.Equal(t, int64(80), sized[1].Quantity)
	assert.Equal(t, int64(50), sized[2].Quantity)
}

func TestSizeTotalExposureBounded(t *testing.T) {
	s := NewSizer(2.0, zap.NewNop())

	decisions := []domain.Decision{
		eligibleDecision("A", domain.DirectionLong, 13.37),
		eligibleDecision("B", domain.DirectionLong, 104.9),
		eligibleDecision("C", domain.DirectionShort, 7.01),
		eligibleDecision("D", domain.DirectionShort, 999.99),
	}
	cash := 25000.0

	total := 0.0
	for _, d := range s.Size(decisions, cash) {
		total += float64(d.Quantity) * d.EntryPrice
	}
	assert.LessOrEqual(t, total, 2*cash)
}

func TestSizeSkipsIneligibleAndDirectionless(t *testing.T) {
	s := NewSizer(2.0, zap.NewNop())

	ineligible := eligibleDecision("A", domain.DirectionLong, 100)
	ineligible.Eligible = false

	decisions := []domain.Decision{
		ineligible,
		eligibleDecision("B", domain.DirectionNone, 100),
		eligibleDecision("C", domain.DirectionLong, 100),
	}

	sized := s.Size(decisions, 10000)
	require.Len(t, sized, 1)
	assert.Equal(t, "C", sized[0].Symbol)
	// Only one decision shares the pool.
	assert.Equal(t, int64(200), sized[0].Quantity)
}

func TestSizeNoEligibleDecisions(t *testing.T) {
	s := NewSizer(2.0, zap.NewNop())
	assert.Nil(t, s.Size(nil, 10000))
	assert.Nil(t, s.Size([]domain.Decision{eligibleDecision("A", domain.DirectionNone, 10)}, 10000))
}

func TestSizeDropsZeroQuantityAllocations(t *testing.T) {
	s := NewSizer(2.0, zap.NewNop())

	decisions := []domain.Decision{
		eligibleDecision("PRICY", domain.DirectionLong, 5000),
		eligibleDecision("CHEAP", domain.DirectionLong, 10),
	}

	sized := s.Size(decisions, 2000)
	require.Len(t, sized, 1)
	assert.Equal(t, "CHEAP", sized[0].Symbol)
}
