package papergateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ports"
)

// Gateway is a simulated execution gateway for paper trading. Marketable
// orders fill immediately at the quoted spread price; stop orders rest until
// CheckStops observes the trigger crossed. Fill events are delivered through
// the registered handler on a separate goroutine, matching the asynchronous
// listener behaviour of a real brokerage connection.
type Gateway struct {
	logger     ports.Logger
	marketData ports.MarketDataProvider
	quoteAt    func() time.Time

	mu          sync.Mutex
	nextOrderID int64
	handler     ports.OrderEventHandler
	cash        float64
	resting     map[int64]*restingOrder
}

type restingOrder struct {
	spread    domain.CalendarSpread
	side      domain.OrderSide
	qty       int
	stopPrice float64
}

// Config holds the dependencies and initial state of the paper gateway.
type Config struct {
	Logger      ports.Logger
	MarketData  ports.MarketDataProvider
	InitialCash float64
}

// New creates a paper gateway. Quotes are sourced from the market data
// provider at wall-clock time.
func New(cfg Config) (*Gateway, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.MarketData == nil {
		return nil, fmt.Errorf("market data provider is required")
	}
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive, got %.2f", cfg.InitialCash)
	}
	return &Gateway{
		logger:     cfg.Logger,
		marketData: cfg.MarketData,
		quoteAt:    time.Now,
		cash:       cfg.InitialCash,
		resting:    make(map[int64]*restingOrder),
	}, nil
}

// SetOrderEventHandler implements ports.ExecutionGateway.
func (g *Gateway) SetOrderEventHandler(handler ports.OrderEventHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = handler
}

// AccountValue implements ports.ExecutionGateway.
func (g *Gateway) AccountValue(ctx context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash, nil
}

// QuoteSpread implements ports.ExecutionGateway.
func (g *Gateway) QuoteSpread(ctx context.Context, spread domain.CalendarSpread, timeout time.Duration) (float64, error) {
	quoteCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	price, err := g.marketData.GetSpreadPrice(quoteCtx, spread, g.quoteAt())
	if err != nil {
		return 0, fmt.Errorf("quoting %s spread: %w", spread.Ticker, ports.ErrPriceUnavailable)
	}
	return price, nil
}

// SubmitOrder implements ports.ExecutionGateway. Market and limit orders are
// assumed marketable and fill in full; stop orders rest until triggered.
func (g *Gateway) SubmitOrder(ctx context.Context, spread domain.CalendarSpread, side domain.OrderSide, qty int, orderType domain.OrderType, limitPrice float64) (int64, error) {
	op := "submitOrder"
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d: %w", qty, ports.ErrOrderPlacementFailed)
	}

	g.mu.Lock()
	g.nextOrderID++
	orderID := g.nextOrderID
	g.mu.Unlock()

	g.logger.Info(ctx, "Paper order submitted", map[string]interface{}{
		"op": op, "orderID": orderID, "ticker": spread.Ticker,
		"side": side, "qty": qty, "type": orderType, "price": limitPrice,
	})

	if orderType == domain.OrderTypeStop {
		g.mu.Lock()
		g.resting[orderID] = &restingOrder{spread: spread, side: side, qty: qty, stopPrice: limitPrice}
		g.mu.Unlock()
		g.dispatch(ports.OrderEvent{OrderID: orderID, Status: ports.OrderStatusSubmitted})
		return orderID, nil
	}

	fillPrice := limitPrice
	if orderType == domain.OrderTypeMarket || fillPrice <= 0 {
		price, err := g.marketData.GetSpreadPrice(ctx, spread, g.quoteAt())
		if err != nil {
			g.logger.Warn(ctx, "No fill price available, rejecting paper order", map[string]interface{}{
				"op": op, "orderID": orderID, "ticker": spread.Ticker, "error": err.Error(),
			})
			g.dispatch(ports.OrderEvent{OrderID: orderID, Status: ports.OrderStatusRejected})
			return orderID, nil
		}
		fillPrice = price
	}

	g.fill(ctx, orderID, side, qty, fillPrice)
	return orderID, nil
}

// CancelOrder implements ports.ExecutionGateway.
func (g *Gateway) CancelOrder(ctx context.Context, orderID int64) error {
	g.mu.Lock()
	_, ok := g.resting[orderID]
	if ok {
		delete(g.resting, orderID)
	}
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, ports.ErrOrderNotFound)
	}
	g.logger.Info(ctx, "Paper order cancelled", map[string]interface{}{"orderID": orderID})
	g.dispatch(ports.OrderEvent{OrderID: orderID, Status: ports.OrderStatusCancelled})
	return nil
}

// CheckStops quotes each resting stop order and fills the ones whose trigger
// has been crossed. Callers run this on their polling cadence.
func (g *Gateway) CheckStops(ctx context.Context) {
	op := "checkStops"

	g.mu.Lock()
	pending := make(map[int64]*restingOrder, len(g.resting))
	for id, ord := range g.resting {
		pending[id] = ord
	}
	g.mu.Unlock()

	for id, ord := range pending {
		price, err := g.marketData.GetSpreadPrice(ctx, ord.spread, g.quoteAt())
		if err != nil {
			g.logger.Debug(ctx, "Stop check skipped, no quote", map[string]interface{}{
				"op": op, "orderID": id, "ticker": ord.spread.Ticker,
			})
			continue
		}
		if !triggered(ord, price) {
			continue
		}
		g.mu.Lock()
		_, still := g.resting[id]
		if still {
			delete(g.resting, id)
		}
		g.mu.Unlock()
		if !still {
			continue
		}
		g.logger.Info(ctx, "Paper stop order triggered", map[string]interface{}{
			"op": op, "orderID": id, "ticker": ord.spread.Ticker,
			"stopPrice": ord.stopPrice, "fillPrice": price,
		})
		g.fill(ctx, id, ord.side, ord.qty, price)
	}
}

// triggered applies the stop trigger on the side the order protects: a sell
// stop fires once the spread trades at or above its trigger, a buy stop at or
// below.
func triggered(ord *restingOrder, price float64) bool {
	if ord.side == domain.Sell {
		return price >= ord.stopPrice
	}
	return price <= ord.stopPrice
}

func (g *Gateway) fill(ctx context.Context, orderID int64, side domain.OrderSide, qty int, price float64) {
	notional := price * float64(qty) * domain.ContractMultiplier
	g.mu.Lock()
	if side == domain.Buy {
		g.cash -= notional
	} else {
		g.cash += notional
	}
	g.mu.Unlock()
	g.dispatch(ports.OrderEvent{
		OrderID:      orderID,
		Status:       ports.OrderStatusFilled,
		FilledQty:    qty,
		AvgFillPrice: price,
	})
}

// dispatch delivers an order event on its own goroutine. Handlers are invoked
// from order-submission paths that may already hold caller locks, so delivery
// must never run inline.
func (g *Gateway) dispatch(event ports.OrderEvent) {
	g.mu.Lock()
	handler := g.handler
	g.mu.Unlock()
	if handler == nil {
		return
	}
	go handler(context.Background(), event)
}
