package brokerage

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

const (
	paperBaseURL = "https://paper-api.alpaca.markets"
	liveBaseURL  = "https://api.alpaca.markets"

	requestTimeout = 10 * time.Second
)

// AlpacaClient implements domain.Brokerage against the Alpaca trading API.
type AlpacaClient struct {
	rest   *resty.Client
	logger *zap.Logger
}

func NewAlpacaClient(apiKey, apiSecret string, paper bool, logger *zap.Logger) *AlpacaClient {
	baseURL := liveBaseURL
	if paper {
		baseURL = paperBaseURL
	}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetHeader("APCA-API-KEY-ID", apiKey).
		SetHeader("APCA-API-SECRET-KEY", apiSecret).
		SetTimeout(requestTimeout)

	return &AlpacaClient{rest: rest, logger: logger}
}

// classify maps transport failures and 5xx responses to transient errors so
// the pipeline retries them; 4xx responses carry the rejection reason and
// are permanent.
func classify(resp *resty.Response, err error) error {
	if err != nil {
		return domain.Transient(err)
	}
	if resp.StatusCode() >= 500 {
		return domain.Transient(fmt.Errorf("brokerage %d: %s", resp.StatusCode(), resp.String()))
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("brokerage rejected request (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type clockResponse struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

func (c *AlpacaClient) GetClock(ctx context.Context) (*domain.Clock, error) {
	var out clockResponse
	resp, err := c.rest.R().SetContext(ctx).SetResult(&out).Get("/v2/clock")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("get clock: %w", err)
	}
	return &domain.Clock{
		Timestamp: out.Timestamp,
		IsOpen:    out.IsOpen,
		NextOpen:  out.NextOpen,
		NextClose: out.NextClose,
	}, nil
}

type calendarDayResponse struct {
	Date  string `json:"date"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

func (c *AlpacaClient) GetCalendar(ctx context.Context, from, to time.Time) ([]domain.CalendarDay, error) {
	var out []calendarDayResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("start", from.Format("2006-01-02")).
		SetQueryParam("end", to.Format("2006-01-02")).
		SetResult(&out).
		Get("/v2/calendar")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}

	days := make([]domain.CalendarDay, 0, len(out))
	for _, d := range out {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("get calendar: bad date %q: %w", d.Date, err)
		}
		open, _ := time.Parse("2006-01-02 15:04", d.Date+" "+d.Open)
		close_, _ := time.Parse("2006-01-02 15:04", d.Date+" "+d.Close)
		days = append(days, domain.CalendarDay{Date: date, Open: open, Close: close_})
	}
	return days, nil
}

type assetResponse struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Exchange  string `json:"exchange"`
	Tradable  bool   `json:"tradable"`
	Shortable bool   `json:"shortable"`
}

func (c *AlpacaClient) GetAssets(ctx context.Context, class string) ([]domain.Asset, error) {
	var out []assetResponse
	req := c.rest.R().SetContext(ctx).SetResult(&out)
	if class != "" {
		req.SetQueryParam("asset_class", class)
	}
	resp, err := req.Get("/v2/assets")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}

	assets := make([]domain.Asset, 0, len(out))
	for _, a := range out {
		assets = append(assets, domain.Asset{
			Symbol:    a.Symbol,
			Name:      a.Name,
			Class:     a.Class,
			Exchange:  a.Exchange,
			Tradable:  a.Tradable,
			Shortable: a.Shortable,
		})
	}
	return assets, nil
}

type accountResponse struct {
	ID       string `json:"id"`
	Cash     string `json:"cash"`
	Currency string `json:"currency"`
}

func (c *AlpacaClient) GetAccount(ctx context.Context) (*domain.Account, error) {
	var out accountResponse
	resp, err := c.rest.R().SetContext(ctx).SetResult(&out).Get("/v2/account")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	cash, err := strconv.ParseFloat(out.Cash, 64)
	if err != nil {
		return nil, fmt.Errorf("get account: bad cash %q: %w", out.Cash, err)
	}
	return &domain.Account{ID: out.ID, Cash: cash, Currency: out.Currency}, nil
}

type orderResponse struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Qty         string    `json:"qty"`
	Side        string    `json:"side"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (c *AlpacaClient) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	var out orderResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req.Payload()).
		SetResult(&out).
		Post("/v2/orders")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return &domain.OrderResult{
		OrderID:     out.ID,
		Symbol:      out.Symbol,
		Qty:         out.Qty,
		Side:        domain.OrderSide(out.Side),
		Type:        domain.OrderType(out.Type),
		Status:      out.Status,
		SubmittedAt: out.SubmittedAt,
	}, nil
}

type positionResponse struct {
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Qty         string `json:"qty"`
	CostBasis   string `json:"cost_basis"`
	MarketValue string `json:"market_value"`
	Exchange    string `json:"exchange"`
}

// GetPositions mirrors open positions. Short positions are reported by the
// venue with negative quantity and value; they are normalized to positive
// magnitudes here.
func (c *AlpacaClient) GetPositions(ctx context.Context) ([]*domain.Position, error) {
	var out []positionResponse
	resp, err := c.rest.R().SetContext(ctx).SetResult(&out).Get("/v2/positions")
	if err := classify(resp, err); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	positions := make([]*domain.Position, 0, len(out))
	for _, p := range out {
		qty, err := strconv.ParseFloat(p.Qty, 64)
		if err != nil {
			return nil, fmt.Errorf("get positions: bad qty %q: %w", p.Qty, err)
		}
		costBasis, err := strconv.ParseFloat(p.CostBasis, 64)
		if err != nil {
			return nil, fmt.Errorf("get positions: bad cost basis %q: %w", p.CostBasis, err)
		}
		marketValue, err := strconv.ParseFloat(p.MarketValue, 64)
		if err != nil {
			return nil, fmt.Errorf("get positions: bad market value %q: %w", p.MarketValue, err)
		}

		side := domain.SideLong
		if p.Side == "short" {
			side = domain.SideShort
		}
		positions = append(positions, &domain.Position{
			Symbol:      p.Symbol,
			Side:        side,
			Quantity:    math.Abs(qty),
			CostBasis:   math.Abs(costBasis),
			MarketValue: math.Abs(marketValue),
			Exchange:    p.Exchange,
		})
	}
	return positions, nil
}

func (c *AlpacaClient) ClosePosition(ctx context.Context, symbol string) error {
	resp, err := c.rest.R().SetContext(ctx).Delete("/v2/positions/" + symbol)
	if err := classify(resp, err); err != nil {
		return fmt.Errorf("close position %s: %w", symbol, err)
	}
	return nil
}

func (c *AlpacaClient) CloseAllPositions(ctx context.Context, cancelOrders bool) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("cancel_orders", strconv.FormatBool(cancelOrders)).
		Delete("/v2/positions")
	if err := classify(resp, err); err != nil {
		return fmt.Errorf("close all positions: %w", err)
	}
	return nil
}
