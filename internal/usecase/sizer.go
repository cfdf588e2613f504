package usecase

import (
	"math"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// Sizer converts eligible decisions and a cash snapshot into per-symbol
// quantities. Long and short decisions share the capital pool equally; the
// leverage factor is a deliberate strategy parameter, configured rather
// than derived.
type Sizer struct {
	leverageFactor float64
	logger         *zap.Logger
}

func NewSizer(leverageFactor float64, logger *zap.Logger) *Sizer {
	return &Sizer{leverageFactor: leverageFactor, logger: logger}
}

// Size allocates floor(factor x cash / price / n) shares to each of the n
// eligible decisions. Cash is a tick-scoped snapshot taken once by the
// caller. With no eligible decisions, no orders are built.
func (s *Sizer) Size(decisions []domain.Decision, cash float64) []domain.SizedDecision {
	eligible := make([]domain.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Direction == domain.DirectionNone || !d.Eligible || d.EntryPrice <= 0 {
			continue
		}
		eligible = append(eligible, d)
	}

	total := len(eligible)
	if total == 0 {
		s.logger.Info("no eligible decisions to size")
		return nil
	}

	sized := make([]domain.SizedDecision, 0, total)
	for _, d := range eligible {
		qty := int64(math.Floor(s.leverageFactor * cash / d.EntryPrice / float64(total)))
		if qty <= 0 {
			s.logger.Info("allocation rounds to zero, skipping",
				zap.String("symbol", d.Symbol), zap.Float64("price", d.EntryPrice))
			continue
		}
		sized = append(sized, domain.SizedDecision{Decision: d, Quantity: qty})
	}
	return sized
}
