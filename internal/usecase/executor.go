package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// Executor maps sized decisions to validated broker orders and submits
// them. A transient connectivity failure gets exactly one more attempt of
// the same logical order; a second failure abandons the decision for the
// session so the execution window is not missed.
type Executor struct {
	brokerage domain.Brokerage
	logger    *zap.Logger
}

func NewExecutor(brokerage domain.Brokerage, logger *zap.Logger) *Executor {
	return &Executor{brokerage: brokerage, logger: logger}
}

// Submit builds the order for the decision and sends it. Construction
// errors (unsupported type, missing required price) are fatal for this
// order only: nothing is sent and the decision is abandoned.
func (e *Executor) Submit(ctx context.Context, d domain.SizedDecision, orderType domain.OrderType, tif domain.TimeInForce) (*domain.OrderResult, error) {
	spec := domain.OrderSpec{
		Symbol:      d.Symbol,
		Quantity:    d.Quantity,
		Type:        orderType,
		TimeInForce: tif,
	}
	switch d.Direction {
	case domain.DirectionLong:
		spec.Side = domain.OrderBuy
	case domain.DirectionShort:
		spec.Side = domain.OrderSell
	default:
		return nil, fmt.Errorf("submit %s: decision has no direction", d.Symbol)
	}
	if orderType == domain.OrderLimit || orderType == domain.OrderStopLimit {
		spec.LimitPrice = d.EntryPrice
	}
	if orderType == domain.OrderStop || orderType == domain.OrderStopLimit {
		spec.StopPrice = d.EntryPrice
	}

	order, err := domain.NewOrder(spec)
	if err != nil {
		e.logger.Error("order construction failed, abandoning decision",
			zap.String("symbol", d.Symbol), zap.Error(err))
		return nil, err
	}

	var result *domain.OrderResult
	err = Retry(ctx, 2, 0, domain.IsTransient, func() error {
		var submitErr error
		result, submitErr = e.brokerage.SubmitOrder(ctx, order)
		if submitErr != nil && domain.IsTransient(submitErr) {
			e.logger.Warn("transient submit failure",
				zap.String("symbol", d.Symbol), zap.Error(submitErr))
		}
		return submitErr
	})
	if err != nil {
		e.logger.Error("abandoning order for this session",
			zap.String("symbol", d.Symbol),
			zap.Int64("quantity", d.Quantity),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("order submitted",
		zap.String("symbol", d.Symbol),
		zap.String("order_id", result.OrderID),
		zap.String("side", string(result.Side)),
		zap.Int64("quantity", d.Quantity))
	return result, nil
}
