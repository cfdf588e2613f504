package domain

import "time"

// Granularity is the bar aggregation timespan understood by the market-data
// provider.
type Granularity string

const (
	GranularitySecond  Granularity = "second"
	GranularityMinute  Granularity = "minute"
	GranularityHour    Granularity = "hour"
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Valid reports whether the granularity is one the provider supports.
func (g Granularity) Valid() bool {
	switch g {
	case GranularitySecond, GranularityMinute, GranularityHour, GranularityDay,
		GranularityWeek, GranularityMonth, GranularityQuarter, GranularityYear:
		return true
	}
	return false
}

// Bar is a single OHLCV aggregate. Immutable once fetched; ordered by
// Timestamp ascending per symbol.
type Bar struct {
	Symbol       string
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	VWAP         float64
	Transactions int64
}
