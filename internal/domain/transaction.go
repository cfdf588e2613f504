package domain

import "time"

// Transaction is one realized exit, recorded exactly once and append-only.
// ModelID back-references the ModelRecord that triggered entry, when that
// record was still eligible at entry time.
type Transaction struct {
	TransactionID string
	Description   string
	Ticker        string
	Side          Side
	OrderType     OrderType
	EntryPrice    float64
	ExitPrice     float64
	Currency      string
	Quantity      float64
	Exchange      string
	Broker        string
	Paper         bool
	Live          bool
	Backtest      bool
	ModelID       *string
	PlacedAt      time.Time
	AcceptedAt    time.Time
	CreatedAt     time.Time
}
