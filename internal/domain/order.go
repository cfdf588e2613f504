package domain

import (
	"fmt"
	"strconv"
	"time"
)

type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

type OrderType string

const (
	OrderMarket       OrderType = "market"
	OrderLimit        OrderType = "limit"
	OrderStop         OrderType = "stop"
	OrderStopLimit    OrderType = "stop_limit"
	OrderTrailingStop OrderType = "trailing_stop"
)

type TimeInForce string

const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
	TIFIOC TimeInForce = "ioc"
)

// OrderPayload is the wire shape the brokerage accepts. Optional price
// fields are present only when the order kind requires them.
type OrderPayload struct {
	Symbol       string      `json:"symbol"`
	Qty          string      `json:"qty"`
	Side         OrderSide   `json:"side"`
	Type         OrderType   `json:"type"`
	TimeInForce  TimeInForce `json:"time_in_force"`
	LimitPrice   string      `json:"limit_price,omitempty"`
	StopPrice    string      `json:"stop_price,omitempty"`
	TrailPercent string      `json:"trail_percent,omitempty"`
}

// OrderRequest is one kind of brokerage order. Each variant carries exactly
// the price fields its kind requires; Validate enforces them before any
// network call.
type OrderRequest interface {
	Validate() error
	Payload() OrderPayload
}

// OrderSpec is the untyped input an order is built from. NewOrder turns it
// into the matching OrderRequest variant or rejects it.
type OrderSpec struct {
	Symbol       string
	Quantity     int64
	Side         OrderSide
	Type         OrderType
	TimeInForce  TimeInForce
	LimitPrice   float64
	StopPrice    float64
	TrailPercent float64
}

type baseOrder struct {
	Symbol      string
	Quantity    int64
	Side        OrderSide
	TimeInForce TimeInForce
}

func (b baseOrder) validateBase() error {
	if b.Symbol == "" {
		return fmt.Errorf("order: %w", ErrMissingSymbol)
	}
	if b.Quantity <= 0 {
		return fmt.Errorf("order %s: %w", b.Symbol, ErrNonPositiveQuantity)
	}
	if b.Side != OrderBuy && b.Side != OrderSell {
		return fmt.Errorf("order %s: invalid side %q", b.Symbol, b.Side)
	}
	return nil
}

func (b baseOrder) payload(typ OrderType) OrderPayload {
	return OrderPayload{
		Symbol:      b.Symbol,
		Qty:         strconv.FormatInt(b.Quantity, 10),
		Side:        b.Side,
		Type:        typ,
		TimeInForce: b.TimeInForce,
	}
}

type MarketOrder struct{ baseOrder }

func (o MarketOrder) Validate() error { return o.validateBase() }

func (o MarketOrder) Payload() OrderPayload { return o.payload(OrderMarket) }

type LimitOrder struct {
	baseOrder
	LimitPrice float64
}

func (o LimitOrder) Validate() error {
	if err := o.validateBase(); err != nil {
		return err
	}
	if o.LimitPrice <= 0 {
		return fmt.Errorf("order %s: %w", o.Symbol, ErrMissingLimitPrice)
	}
	return nil
}

func (o LimitOrder) Payload() OrderPayload {
	p := o.payload(OrderLimit)
	p.LimitPrice = formatPrice(o.LimitPrice)
	return p
}

type StopOrder struct {
	baseOrder
	StopPrice float64
}

func (o StopOrder) Validate() error {
	if err := o.validateBase(); err != nil {
		return err
	}
	if o.StopPrice <= 0 {
		return fmt.Errorf("order %s: %w", o.Symbol, ErrMissingStopPrice)
	}
	return nil
}

func (o StopOrder) Payload() OrderPayload {
	p := o.payload(OrderStop)
	p.StopPrice = formatPrice(o.StopPrice)
	return p
}

type StopLimitOrder struct {
	baseOrder
	LimitPrice float64
	StopPrice  float64
}

func (o StopLimitOrder) Validate() error {
	if err := o.validateBase(); err != nil {
		return err
	}
	if o.StopPrice <= 0 {
		return fmt.Errorf("order %s: %w", o.Symbol, ErrMissingStopPrice)
	}
	if o.LimitPrice <= 0 {
		return fmt.Errorf("order %s: %w", o.Symbol, ErrMissingLimitPrice)
	}
	return nil
}

func (o StopLimitOrder) Payload() OrderPayload {
	p := o.payload(OrderStopLimit)
	p.LimitPrice = formatPrice(o.LimitPrice)
	p.StopPrice = formatPrice(o.StopPrice)
	return p
}

type TrailingStopOrder struct {
	baseOrder
	TrailPercent float64
}

func (o TrailingStopOrder) Validate() error {
	if err := o.validateBase(); err != nil {
		return err
	}
	if o.TrailPercent <= 0 {
		return fmt.Errorf("order %s: %w", o.Symbol, ErrMissingTrailPercent)
	}
	return nil
}

func (o TrailingStopOrder) Payload() OrderPayload {
	p := o.payload(OrderTrailingStop)
	p.TrailPercent = formatPrice(o.TrailPercent)
	return p
}

// NewOrder builds and validates the order variant for spec.Type. An
// unsupported type or a missing required price field is a construction
// error; such an order must never reach the brokerage.
func NewOrder(spec OrderSpec) (OrderRequest, error) {
	base := baseOrder{
		Symbol:      spec.Symbol,
		Quantity:    spec.Quantity,
		Side:        spec.Side,
		TimeInForce: spec.TimeInForce,
	}

	var req OrderRequest
	switch spec.Type {
	case OrderMarket:
		req = MarketOrder{base}
	case OrderLimit:
		req = LimitOrder{base, spec.LimitPrice}
	case OrderStop:
		req = StopOrder{base, spec.StopPrice}
	case OrderStopLimit:
		req = StopLimitOrder{base, spec.LimitPrice, spec.StopPrice}
	case OrderTrailingStop:
		req = TrailingStopOrder{base, spec.TrailPercent}
	default:
		return nil, fmt.Errorf("order %s: %w: %q", spec.Symbol, ErrUnsupportedOrderType, spec.Type)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OrderResult is the brokerage's acknowledgement of a submitted order.
type OrderResult struct {
	OrderID     string
	Symbol      string
	Qty         string
	Side        OrderSide
	Type        OrderType
	Status      string
	SubmittedAt time.Time
}
