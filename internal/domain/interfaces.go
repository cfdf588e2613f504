package domain

import (
	"context"
	"time"
)

// Brokerage is the trading venue the pipeline submits to and mirrors
// positions from.
type Brokerage interface {
	GetClock(ctx context.Context) (*Clock, error)
	GetCalendar(ctx context.Context, from, to time.Time) ([]CalendarDay, error)
	GetAssets(ctx context.Context, class string) ([]Asset, error)
	GetAccount(ctx context.Context) (*Account, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	GetPositions(ctx context.Context) ([]*Position, error)
	ClosePosition(ctx context.Context, symbol string) error
	CloseAllPositions(ctx context.Context, cancelOrders bool) error
}

// MarketData serves historical aggregates for a symbol in one bounded
// window. Callers are responsible for chunking wide ranges.
type MarketData interface {
	GetAggregates(ctx context.Context, symbol string, multiplier int, granularity Granularity, from, to time.Time) ([]Bar, error)
}

// ObjectStore retrieves serialized model artifacts.
type ObjectStore interface {
	Download(ctx context.Context, bucket, object, dest string) error
}

// ModelRepository reads trained-model metadata and refreshes it
// idempotently.
type ModelRepository interface {
	ActiveModels(ctx context.Context, since time.Time) ([]*ModelRecord, error)
	UpsertModels(ctx context.Context, records []*ModelRecord) error
}

// TransactionRepository appends realized exits.
type TransactionRepository interface {
	InsertTransactions(ctx context.Context, txs []*Transaction) error
}

// BarRepository stores historical bars for feature construction.
type BarRepository interface {
	UpsertBars(ctx context.Context, bars []Bar) error
	BarsBetween(ctx context.Context, symbols []string, from, to time.Time) ([]Bar, error)
}
