package ports

import (
	"context"
	"time"

	"earningsSpreadBot/internal/domain"
)

// MarketDataProvider defines the interface for retrieving historical prices
// and at-the-money implied volatility samples from a market-data vendor.
// This abstraction decouples the core engine from any specific vendor client.
type MarketDataProvider interface {
	// GetBars retrieves price bars for the given ticker between start and end,
	// at the given interval (e.g. "day", "minute"), ordered ascending by time.
	GetBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]*domain.PriceBar, error)

	// GetVolatilitySamples retrieves at-the-money implied volatility samples
	// per option expiration for the given ticker as of the given date, sorted
	// ascending by days to expiry.
	GetVolatilitySamples(ctx context.Context, ticker string, asOf time.Time) ([]*domain.VolatilitySample, error)

	// GetSpreadPrice retrieves the historical net price of a calendar spread
	// (long leg minus short leg) at a specific minute in time.
	// Returns ErrPriceUnavailable when either leg has no data.
	GetSpreadPrice(ctx context.Context, spread domain.CalendarSpread, at time.Time) (float64, error)
}

// EarningsCalendarProvider defines the interface for retrieving scheduled
// earnings announcements.
type EarningsCalendarProvider interface {
	// GetUpcomingEvents retrieves earnings events scheduled within the next
	// horizonDays days, ordered ascending by report date.
	GetUpcomingEvents(ctx context.Context, horizonDays int) ([]*domain.EarningsEvent, error)

	// GetHistoricalEvents retrieves earnings events between start and end,
	// ordered ascending by report date. Used by the backtest replay.
	GetHistoricalEvents(ctx context.Context, start, end time.Time) ([]*domain.EarningsEvent, error)
}

// MacroCalendarProvider defines the interface for the macro-economic event
// veto used by the screening engine.
type MacroCalendarProvider interface {
	// IsMacroEventNear reports whether a major macro event (FOMC, CPI, ...)
	// falls within the next daysAhead days. The returned reason is a human
	// readable explanation. Implementations should fail permissive: if the
	// check cannot be performed, report false with the failure as reason.
	IsMacroEventNear(ctx context.Context, daysAhead int) (near bool, reason string, err error)
}
