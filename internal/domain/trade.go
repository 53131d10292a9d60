package domain

import "time"

// CalendarSpread defines the two legs of a calendar spread: short the
// near-dated option, long the later-dated option, same strike and right.
// Fixed at trade creation.
type CalendarSpread struct {
	Ticker      string
	Strike      float64
	Right       OptionRight
	ShortExpiry time.Time // Near-dated leg, sold
	LongExpiry  time.Time // Later-dated leg, bought
}

// Trade is the central mutable record carrying one candidate from scheduling
// through entry, protective-stop attachment, and exit. It is exclusively
// owned by the scheduler for the duration of its life; gateway callbacks only
// ever report events about its order identifiers.
type Trade struct {
	Ticker         string
	EvaluationDate time.Time
	Spread         CalendarSpread

	EntryTime time.Time // Timezone-aware instant at which to enter
	ExitTime  time.Time // Timezone-aware instant at which to exit

	// Mutable fields, serialized by the owning scheduler.
	Status           TradeStatus
	PositionSize     int    // Contracts held, >= 0
	EntryOrderID     *int64 // Gateway order id of the entry order, nil until submitted
	StopLossOrderID  *int64 // Gateway order id of the protective stop, nil until placed
	EntryFillPrice   float64
	RealizedPnL      float64
	RealizedPnLKnown bool // False while a time-based exit remains unpriced
}

// EarningsEvent is one scheduled earnings announcement from the calendar
// provider.
type EarningsEvent struct {
	Ticker     string
	ReportDate time.Time // Session date of the announcement
	Timing     EventTiming
}
