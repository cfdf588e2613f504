package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

func TestLoadUniverseFiltersUntradableAssets(t *testing.T) {
	broker := &mockBrokerage{assets: []domain.Asset{
		{Symbol: "AAPL", Tradable: true, Shortable: true},
		{Symbol: "TSLA", Tradable: true, Shortable: false},
		{Symbol: "DELISTED", Tradable: false, Shortable: false},
	}}

	u, err := LoadUniverse(context.Background(), broker, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, u.Contains("AAPL"))
	assert.True(t, u.Contains("TSLA"))
	assert.False(t, u.Contains("DELISTED"))

	assert.True(t, u.Shortable["AAPL"])
	assert.False(t, u.Shortable["TSLA"])
}

func TestLoadUniverseEmptyCatalogueIsFatal(t *testing.T) {
	broker := &mockBrokerage{}

	_, err := LoadUniverse(context.Background(), broker, zap.NewNop())
	assert.ErrorContains(t, err, "no tradable assets")
}
