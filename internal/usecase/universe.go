package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// Universe is the session's tradable asset set. Short eligibility is kept
// as a separate set because it is checked per decision, not per universe.
type Universe struct {
	Tradable  map[string]domain.Asset
	Shortable map[string]bool
}

// LoadUniverse filters the full brokerage catalogue down to tradable US
// equities. An empty universe is a fatal condition for the session.
func LoadUniverse(ctx context.Context, brokerage domain.Brokerage, logger *zap.Logger) (*Universe, error) {
	assets, err := brokerage.GetAssets(ctx, "us_equity")
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	u := &Universe{
		Tradable:  make(map[string]domain.Asset),
		Shortable: make(map[string]bool),
	}
	for _, a := range assets {
		if !a.Tradable {
			continue
		}
		u.Tradable[a.Symbol] = a
		if a.Shortable {
			u.Shortable[a.Symbol] = true
		}
	}

	if len(u.Tradable) == 0 {
		return nil, fmt.Errorf("load universe: no tradable assets")
	}

	logger.Info("universe loaded",
		zap.Int("tradable", len(u.Tradable)),
		zap.Int("shortable", len(u.Shortable)))
	return u, nil
}

// Contains reports whether the symbol can be traded this session.
func (u *Universe) Contains(symbol string) bool {
	_, ok := u.Tradable[symbol]
	return ok
}
