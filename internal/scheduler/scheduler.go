package scheduler

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ledger"
	"earningsSpreadBot/internal/ports"
)

// Config holds parameters for the trade lifecycle scheduler.
type Config struct {
	RiskAllocationPercent float64
	StopLossPercent       float64
	EntryOrderType        domain.OrderType
	QuoteTimeout          time.Duration
}

// Scheduler owns the collection of scheduled trades and drives each through
// its lifecycle: time-triggered transitions on Tick, asynchronous gateway
// events on OnOrderStatus. All trade mutation happens under one mutex, so an
// entry fill and a time-based exit for the same trade are totally ordered,
// never interleaved. The collection is never exposed for outside mutation.
type Scheduler struct {
	cfg     Config
	logger  ports.Logger
	gateway ports.ExecutionGateway
	capital *ledger.CapitalLedger

	mu     sync.Mutex
	trades []*domain.Trade
	halted bool
}

// New creates a scheduler instance.
func New(cfg Config, logger ports.Logger, gateway ports.ExecutionGateway, capital *ledger.CapitalLedger) (*Scheduler, error) {
	if logger == nil || gateway == nil || capital == nil {
		return nil, fmt.Errorf("missing required dependencies for scheduler")
	}
	if cfg.RiskAllocationPercent <= 0 || cfg.RiskAllocationPercent > 1 {
		return nil, fmt.Errorf("RiskAllocationPercent must be between 0 and 1")
	}
	if cfg.StopLossPercent <= 0 {
		return nil, fmt.Errorf("StopLossPercent must be positive")
	}
	if cfg.QuoteTimeout <= 0 {
		return nil, fmt.Errorf("QuoteTimeout must be positive")
	}
	s := &Scheduler{cfg: cfg, logger: logger, gateway: gateway, capital: capital}
	gateway.SetOrderEventHandler(s.OnOrderStatus)
	return s, nil
}

// Enqueue adds a planned trade to the schedule.
func (s *Scheduler) Enqueue(ctx context.Context, trade *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
	s.logger.Info(ctx, "Trade scheduled", map[string]interface{}{
		"ticker": trade.Ticker,
		"entry":  trade.EntryTime.Format("2006-01-02 15:04"),
		"exit":   trade.ExitTime.Format("2006-01-02 15:04"),
	})
}

// Trades returns a snapshot of the schedule. The returned records must be
// treated as read-only; the scheduler remains their owner.
func (s *Scheduler) Trades() []*domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// ActiveCount returns the number of trades not yet in a terminal state.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.trades {
		if !t.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// Run polls the schedule on a fixed cadence until the context is cancelled.
// Cancellation stops the issuance of new orders; open positions remain the
// gateway's responsibility.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info(ctx, "Scheduler loop started", map[string]interface{}{"interval": interval.String()})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.halted = true
			s.mu.Unlock()
			s.logger.Info(ctx, "Scheduler halted, no further orders will be issued")
			return nil
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick evaluates the entry- and exit-time transitions for every non-terminal
// trade against the given time. Ticks are idempotent: re-evaluating terminal
// or in-flight trades produces no duplicate order submissions.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return
	}
	for _, trade := range s.trades {
		switch {
		case trade.Status == domain.StatusPendingEntry && !now.Before(trade.EntryTime):
			s.processEntry(ctx, trade)
		case trade.Status == domain.StatusOpen && !now.Before(trade.ExitTime):
			s.processExit(ctx, trade)
		}
	}
}

// processEntry drives PendingEntry → ProcessingEntry: quote the spread, size
// the position, submit the entry order. Unavailable pricing or a zero size
// skips the trade permanently. Assumes s.mu is held.
func (s *Scheduler) processEntry(ctx context.Context, trade *domain.Trade) {
	op := "processEntry"
	trade.Status = domain.StatusProcessingEntry
	s.logger.Info(ctx, op+": Entry time reached", map[string]interface{}{"ticker": trade.Ticker})

	price, err := s.gateway.QuoteSpread(ctx, trade.Spread, s.cfg.QuoteTimeout)
	if err != nil || price <= 0 {
		trade.Status = domain.StatusSkipped
		s.logger.Warn(ctx, op+": Could not price spread, skipping entry", map[string]interface{}{
			"ticker": trade.Ticker, "price": price, "error": errString(err),
		})
		return
	}

	qty := s.capital.SizePosition(s.cfg.RiskAllocationPercent, price)
	if qty == 0 {
		trade.Status = domain.StatusSkipped
		s.logger.Warn(ctx, op+": Not enough capital to size position, skipping entry", map[string]interface{}{
			"ticker": trade.Ticker, "spreadPrice": price, "capital": s.capital.Capital(),
		})
		return
	}

	s.logger.Info(ctx, op+": Sizing", map[string]interface{}{
		"ticker":      trade.Ticker,
		"spreadPrice": price,
		"contracts":   qty,
		"riskAmount":  s.capital.Capital() * s.cfg.RiskAllocationPercent,
	})

	orderID, err := s.gateway.SubmitOrder(ctx, trade.Spread, domain.Buy, qty, s.cfg.EntryOrderType, price)
	if err != nil {
		// Surfaced for manual reconciliation; the trade stays in
		// ProcessingEntry and is never retried.
		s.logger.Error(ctx, err, op+": Entry order submission failed", map[string]interface{}{"ticker": trade.Ticker})
		return
	}
	trade.EntryOrderID = &orderID
	s.logger.Info(ctx, op+": Entry order submitted", map[string]interface{}{"ticker": trade.Ticker, "orderID": orderID, "qty": qty})
}

// processExit drives Open → ClosedByTime: cancel the protective stop, submit
// a market order for the full position, and record the transition on
// submission without awaiting the closing fill. A best-effort quote books an
// assumed P&L; when it is unavailable the exit stays unpriced. Assumes s.mu
// is held.
func (s *Scheduler) processExit(ctx context.Context, trade *domain.Trade) {
	op := "processExit"
	s.logger.Info(ctx, op+": Exit time reached", map[string]interface{}{"ticker": trade.Ticker})

	if trade.StopLossOrderID != nil {
		if err := s.gateway.CancelOrder(ctx, *trade.StopLossOrderID); err != nil {
			s.logger.Warn(ctx, op+": Failed to cancel stop order", map[string]interface{}{
				"ticker": trade.Ticker, "orderID": *trade.StopLossOrderID, "error": err.Error(),
			})
		}
	}

	if _, err := s.gateway.SubmitOrder(ctx, trade.Spread, domain.Sell, trade.PositionSize, domain.OrderTypeMarket, 0); err != nil {
		s.logger.Error(ctx, err, op+": Closing order submission failed, trade left open", map[string]interface{}{"ticker": trade.Ticker})
		return
	}
	trade.Status = domain.StatusClosedByTime

	// The close is fire-and-forget; book an assumed P&L from a quote rather
	// than the closing fill. A missing quote leaves the exit unpriced.
	exitPrice, err := s.gateway.QuoteSpread(ctx, trade.Spread, s.cfg.QuoteTimeout)
	if err != nil {
		s.logger.Warn(ctx, op+": Exit left unpriced, P&L not booked", map[string]interface{}{
			"ticker": trade.Ticker, "error": err.Error(),
		})
		return
	}
	s.realize(ctx, trade, exitPrice)
}

// OnOrderStatus handles asynchronous order-status events from the gateway.
// Events for terminal trades, unknown order ids or non-fill statuses are
// ignored.
func (s *Scheduler) OnOrderStatus(ctx context.Context, event ports.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Status != ports.OrderStatusFilled {
		s.logger.Debug(ctx, "Ignoring non-fill order event", map[string]interface{}{
			"orderID": event.OrderID, "status": string(event.Status),
		})
		return
	}

	for _, trade := range s.trades {
		switch {
		case trade.Status == domain.StatusProcessingEntry && matches(trade.EntryOrderID, event.OrderID):
			s.onEntryFilled(ctx, trade, event)
			return
		case trade.Status == domain.StatusOpen && matches(trade.StopLossOrderID, event.OrderID):
			s.onStopFilled(ctx, trade, event)
			return
		}
	}
}

// onEntryFilled drives ProcessingEntry → Open and attaches the protective
// stop. Assumes s.mu is held.
func (s *Scheduler) onEntryFilled(ctx context.Context, trade *domain.Trade, event ports.OrderEvent) {
	op := "onEntryFilled"
	trade.PositionSize = event.FilledQty
	trade.EntryFillPrice = event.AvgFillPrice
	trade.Status = domain.StatusOpen

	stopPrice := round2(event.AvgFillPrice * (1 + s.cfg.StopLossPercent))
	s.logger.Info(ctx, op+": Entry filled, placing stop", map[string]interface{}{
		"ticker": trade.Ticker, "fillPrice": event.AvgFillPrice, "qty": event.FilledQty, "stopPrice": stopPrice,
	})

	stopID, err := s.gateway.SubmitOrder(ctx, trade.Spread, domain.Sell, trade.PositionSize, domain.OrderTypeStop, stopPrice)
	if err != nil {
		// Open position without a stop; surfaced, not retried.
		s.logger.Error(ctx, err, op+": Stop order placement failed, position is unprotected", map[string]interface{}{"ticker": trade.Ticker})
		return
	}
	trade.StopLossOrderID = &stopID
	s.logger.Info(ctx, op+": Stop order placed", map[string]interface{}{"ticker": trade.Ticker, "orderID": stopID})
}

// onStopFilled drives Open → ClosedByStop and realizes the P&L from the stop
// fill price. Assumes s.mu is held.
func (s *Scheduler) onStopFilled(ctx context.Context, trade *domain.Trade, event ports.OrderEvent) {
	trade.Status = domain.StatusClosedByStop
	s.logger.Info(ctx, "Stop filled, position closed", map[string]interface{}{
		"ticker": trade.Ticker, "fillPrice": event.AvgFillPrice,
	})
	s.realize(ctx, trade, event.AvgFillPrice)
}

// realize books the trade's P&L against the capital ledger. Assumes the
// trade's entry fill price and position size are set.
func (s *Scheduler) realize(ctx context.Context, trade *domain.Trade, exitPrice float64) {
	pnl := (exitPrice - trade.EntryFillPrice) * domain.ContractMultiplier * float64(trade.PositionSize)
	trade.RealizedPnL = pnl
	trade.RealizedPnLKnown = true
	newCapital := s.capital.Realize(pnl)
	s.logger.Info(ctx, "Trade P&L realized", map[string]interface{}{
		"ticker": trade.Ticker, "pnl": pnl, "capital": newCapital,
	})
}

func matches(id *int64, orderID int64) bool {
	return id != nil && *id == orderID
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
