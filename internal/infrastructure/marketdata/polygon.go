package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/edbennett/daytrader/internal/domain"
)

const (
	defaultBaseURL = "https://api.polygon.io"

	// Provider caps a single aggregates response at 50k rows; window
	// chunking upstream keeps each request under it.
	aggregateLimit = 50000
)

// PolygonClient implements domain.MarketData against the Polygon
// aggregates API. Requests are rate limited to stay inside the plan's
// request budget.
type PolygonClient struct {
	rest    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewPolygonClient(apiKey string, requestsPerSecond float64, logger *zap.Logger) *PolygonClient {
	rest := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)

	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}

	return &PolygonClient{
		rest:    rest,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

type aggregateBar struct {
	Timestamp    int64   `json:"t"`
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	VWAP         float64 `json:"vw"`
	Transactions int64   `json:"n"`
}

type aggregatesResponse struct {
	Ticker       string         `json:"ticker"`
	ResultsCount int            `json:"resultsCount"`
	Results      []aggregateBar `json:"results"`
	Status       string         `json:"status"`
}

func (c *PolygonClient) GetAggregates(ctx context.Context, symbol string, multiplier int, granularity domain.Granularity, from, to time.Time) ([]domain.Bar, error) {
	if !granularity.Valid() {
		return nil, fmt.Errorf("get aggregates %s: unsupported granularity %q", symbol, granularity)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%d/%d",
		symbol, multiplier, granularity, from.UnixMilli(), to.UnixMilli())

	var out aggregatesResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("adjusted", "true").
		SetQueryParam("sort", "asc").
		SetQueryParam("limit", strconv.Itoa(aggregateLimit)).
		SetResult(&out).
		Get(path)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("get aggregates %s: %w", symbol, err))
	}
	if resp.StatusCode() >= 500 {
		return nil, domain.Transient(fmt.Errorf("get aggregates %s: provider %d", symbol, resp.StatusCode()))
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("get aggregates %s: provider %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	// Zero rows is not an error: the symbol simply has no data in the
	// window and is filtered downstream.
	bars := make([]domain.Bar, 0, len(out.Results))
	for _, r := range out.Results {
		bars = append(bars, domain.Bar{
			Symbol:       symbol,
			Timestamp:    time.UnixMilli(r.Timestamp).UTC(),
			Open:         r.Open,
			High:         r.High,
			Low:          r.Low,
			Close:        r.Close,
			Volume:       r.Volume,
			VWAP:         r.VWAP,
			Transactions: r.Transactions,
		})
	}
	return bars, nil
}
