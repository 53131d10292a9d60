package scheduler

import (
	"fmt"
	"math"
	"time"

	"earningsSpreadBot/internal/domain"
)

// Entry is 15:45 the session before the price-reaction day; exit is 09:45 on
// the reaction day, both in the market timezone.
const (
	entryHour, entryMinute = 15, 45
	exitHour, exitMinute   = 9, 45
)

// PlanConfig holds parameters for turning an accepted earnings event into a
// scheduled trade.
type PlanConfig struct {
	MarketTimezone      *time.Location
	OptionType          domain.OptionRight
	ShortExpiryLeadDays int // Days from entry to the short leg's expiry
	ExpiryGapDays       int // Days between the short and long leg expiries
}

// PlanTrade builds a Trade record for an accepted candidate: entry and exit
// instants around the announcement, the ATM strike from the screening
// signal's underlying price, and the two leg expiries. Returns an error when
// the computed entry time is already in the past.
func PlanTrade(event *domain.EarningsEvent, signal *domain.ScreeningSignal, now time.Time, cfg PlanConfig) (*domain.Trade, error) {
	if cfg.MarketTimezone == nil {
		return nil, fmt.Errorf("market timezone is required")
	}

	// The price reaction to an after-close announcement happens the next
	// session; before-open and during-hours announcements react same day.
	reactionDay := event.ReportDate
	if event.Timing == domain.AfterMarketClose {
		reactionDay = reactionDay.AddDate(0, 0, 1)
	}

	entryDay := reactionDay.AddDate(0, 0, -1)
	exitDay := reactionDay

	// Weekend adjustment: entry rolls back to Friday, exit forward to Monday.
	switch entryDay.Weekday() {
	case time.Saturday:
		entryDay = entryDay.AddDate(0, 0, -1)
	case time.Sunday:
		entryDay = entryDay.AddDate(0, 0, -2)
	}
	switch exitDay.Weekday() {
	case time.Saturday:
		exitDay = exitDay.AddDate(0, 0, 2)
	case time.Sunday:
		exitDay = exitDay.AddDate(0, 0, 1)
	}

	entryTime := atTime(entryDay, entryHour, entryMinute, cfg.MarketTimezone)
	exitTime := atTime(exitDay, exitHour, exitMinute, cfg.MarketTimezone)

	if entryTime.Before(now) {
		return nil, fmt.Errorf("entry time %s for %s is in the past", entryTime.Format("2006-01-02 15:04"), event.Ticker)
	}

	shortExpiry := entryDay.AddDate(0, 0, cfg.ShortExpiryLeadDays)
	longExpiry := shortExpiry.AddDate(0, 0, cfg.ExpiryGapDays)

	return &domain.Trade{
		Ticker:         event.Ticker,
		EvaluationDate: signal.AsOfDate,
		Spread: domain.CalendarSpread{
			Ticker:      event.Ticker,
			Strike:      math.Round(signal.UnderlyingPrice),
			Right:       cfg.OptionType,
			ShortExpiry: shortExpiry,
			LongExpiry:  longExpiry,
		},
		EntryTime: entryTime,
		ExitTime:  exitTime,
		Status:    domain.StatusPendingEntry,
	}, nil
}

func atTime(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}
