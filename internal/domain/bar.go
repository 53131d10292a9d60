package domain

import "time"

// PriceBar represents a single OHLCV bar for one trading session (or one
// minute for execution-price lookups). Immutable once produced by a data
// provider.
type PriceBar struct {
	Timestamp time.Time // Start time of the bar
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}
