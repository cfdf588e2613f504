package domain

import "time"

// Clock is the trading-calendar snapshot returned by the brokerage.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// CalendarDay is one session on the venue's trading calendar.
type CalendarDay struct {
	Date  time.Time
	Open  time.Time
	Close time.Time
}

// Asset is one instrument from the brokerage catalogue.
type Asset struct {
	Symbol    string
	Name      string
	Class     string
	Exchange  string
	Tradable  bool
	Shortable bool
}

// Account is the minimal account view the sizer needs.
type Account struct {
	ID       string
	Cash     float64
	Currency string
}
