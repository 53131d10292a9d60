package backtesting

import (
	"context"
	"fmt"
	"time"

	"earningsSpreadBot/internal/analytics"
	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ledger"
	"earningsSpreadBot/internal/ports"
	"earningsSpreadBot/internal/scheduler"
	"earningsSpreadBot/internal/screener"
)

// Config holds configuration for a backtest run.
type Config struct {
	InitialCapital        float64
	RiskAllocationPercent float64
	OptionType            domain.OptionRight
	ShortExpiryLeadDays   int
	ExpiryGapDays         int
	MarketTimezone        *time.Location
	ProviderPacing        time.Duration // Fixed delay between data-provider calls
}

// Result holds the outcome of a backtest run.
type Result struct {
	Trades         []*domain.Trade
	InitialCapital float64
	FinalCapital   float64
	Sessions       []time.Time
	Metrics        *analytics.Metrics
}

// Engine replays historical earnings events through the screening model and
// the trade lifecycle, substituting direct historical price lookups for
// asynchronous fill callbacks. Replay is single-threaded and deterministic.
type Engine struct {
	cfg        Config
	logger     ports.Logger
	marketData ports.MarketDataProvider
	calendar   ports.EarningsCalendarProvider
	screen     *screener.Screener
}

// New creates a backtest engine. The screener must be built on the same
// market-data provider (or a paced wrapper of it, see NewPacedMarketData).
func New(cfg Config, logger ports.Logger, marketData ports.MarketDataProvider, calendar ports.EarningsCalendarProvider, screen *screener.Screener) (*Engine, error) {
	if logger == nil || marketData == nil || calendar == nil || screen == nil {
		return nil, fmt.Errorf("missing required dependencies for backtest engine")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("InitialCapital must be positive")
	}
	if cfg.RiskAllocationPercent <= 0 || cfg.RiskAllocationPercent > 1 {
		return nil, fmt.Errorf("RiskAllocationPercent must be between 0 and 1")
	}
	return &Engine{cfg: cfg, logger: logger, marketData: marketData, calendar: calendar, screen: screen}, nil
}

// Run replays all earnings events between start and end.
func (e *Engine) Run(ctx context.Context, start, end time.Time) (*Result, error) {
	events, err := e.calendar.GetHistoricalEvents(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching historical earnings calendar: %w", err)
	}
	e.logger.Info(ctx, "Starting backtest", map[string]interface{}{
		"events": len(events), "initialCapital": e.cfg.InitialCapital,
	})

	capital, err := ledger.New(e.cfg.InitialCapital)
	if err != nil {
		return nil, err
	}

	result := &Result{
		InitialCapital: e.cfg.InitialCapital,
		Sessions:       businessDays(start, end),
	}

	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info(ctx, "Processing event", map[string]interface{}{
			"n": i + 1, "of": len(events), "ticker": event.Ticker, "reportDate": event.ReportDate.Format("2006-01-02"),
		})

		trade := e.replayEvent(ctx, event, capital)
		if trade != nil {
			result.Trades = append(result.Trades, trade)
		}
	}

	result.FinalCapital = capital.Capital()
	result.Metrics = analytics.ComputeMetrics(result.Trades, e.cfg.InitialCapital, result.Sessions)
	e.logger.Info(ctx, "Backtest complete", map[string]interface{}{
		"trades": len(result.Trades), "finalCapital": result.FinalCapital,
	})
	return result, nil
}

// replayEvent screens one event and, if accepted, simulates the trade with
// synchronous entry/exit price lookups. Returns nil when no trade was
// planned.
func (e *Engine) replayEvent(ctx context.Context, event *domain.EarningsEvent, capital *ledger.CapitalLedger) *domain.Trade {
	scanDate := previousBusinessDay(event.ReportDate)

	signal, err := e.screen.Scan(ctx, event.Ticker, scanDate)
	if err != nil {
		e.logger.Warn(ctx, "Scan failed, skipping event", map[string]interface{}{"ticker": event.Ticker, "error": err.Error()})
		return nil
	}
	if signal.Recommendation != domain.Recommended {
		e.logger.Debug(ctx, "Not recommended, skipping event", map[string]interface{}{
			"ticker": event.Ticker, "recommendation": string(signal.Recommendation),
		})
		return nil
	}

	// Replay has no lower bound on the entry instant.
	trade, err := scheduler.PlanTrade(event, signal, time.Time{}, scheduler.PlanConfig{
		MarketTimezone:      e.cfg.MarketTimezone,
		OptionType:          e.cfg.OptionType,
		ShortExpiryLeadDays: e.cfg.ShortExpiryLeadDays,
		ExpiryGapDays:       e.cfg.ExpiryGapDays,
	})
	if err != nil {
		e.logger.Warn(ctx, "Could not plan trade", map[string]interface{}{"ticker": event.Ticker, "error": err.Error()})
		return nil
	}

	entryPrice, err := e.marketData.GetSpreadPrice(ctx, trade.Spread, trade.EntryTime)
	if err != nil || entryPrice <= 0 {
		trade.Status = domain.StatusSkipped
		e.logger.Warn(ctx, "Could not price entry, trade skipped", map[string]interface{}{"ticker": event.Ticker})
		return trade
	}

	qty := ledger.SizeContracts(capital.Capital(), e.cfg.RiskAllocationPercent, entryPrice)
	if qty == 0 {
		trade.Status = domain.StatusSkipped
		e.logger.Warn(ctx, "Not enough capital to size position, trade skipped", map[string]interface{}{
			"ticker": event.Ticker, "entryPrice": entryPrice, "capital": capital.Capital(),
		})
		return trade
	}

	trade.PositionSize = qty
	trade.EntryFillPrice = entryPrice
	trade.Status = domain.StatusOpen

	exitPrice, err := e.marketData.GetSpreadPrice(ctx, trade.Spread, trade.ExitTime)
	trade.Status = domain.StatusClosedByTime
	if err != nil {
		// Exit stays unpriced; the trade is excluded from the capital curve.
		e.logger.Warn(ctx, "Could not price exit, P&L not booked", map[string]interface{}{"ticker": event.Ticker})
		return trade
	}

	pnl := (exitPrice - entryPrice) * domain.ContractMultiplier * float64(qty)
	trade.RealizedPnL = pnl
	trade.RealizedPnLKnown = true
	newCapital := capital.Realize(pnl)
	e.logger.Info(ctx, "Trade result", map[string]interface{}{
		"ticker": event.Ticker, "contracts": qty, "pnl": pnl, "capital": newCapital,
	})
	return trade
}

// businessDays enumerates the weekday dates between start and end inclusive.
func businessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		}
	}
	return days
}

// previousBusinessDay returns the weekday before the given date.
func previousBusinessDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, -1)
	for {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
}
