package ports

import (
	"context"
	"time"

	"earningsSpreadBot/internal/domain"
)

// OrderStatus is the execution state reported by the gateway for an order.
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "Submitted"
	OrderStatusFilled    OrderStatus = "Filled"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusRejected  OrderStatus = "Rejected"
)

// OrderEvent is an asynchronous order-status callback payload. The gateway
// only ever reports events about order identifiers; it never mutates trades.
type OrderEvent struct {
	OrderID      int64
	Status       OrderStatus
	FilledQty    int
	AvgFillPrice float64
}

// OrderEventHandler receives asynchronous order-status events from the
// gateway's listener thread.
type OrderEventHandler func(ctx context.Context, event OrderEvent)

// ExecutionGateway defines the interface for order entry, account summary and
// spread quoting against the brokerage. The wire protocol behind it is out of
// scope; implementations wrap a broker API or a simulation.
type ExecutionGateway interface {
	// AccountValue retrieves the current net liquidation value of the account.
	AccountValue(ctx context.Context) (float64, error)

	// QuoteSpread retrieves the current natural price of a calendar spread
	// (long mid minus short mid). Blocks at most timeout; on timeout or
	// missing data for either leg it returns ErrPriceUnavailable rather than
	// retrying.
	QuoteSpread(ctx context.Context, spread domain.CalendarSpread, timeout time.Duration) (float64, error)

	// SubmitOrder places an order for qty contracts of the spread and returns
	// the gateway-assigned order id. limitPrice is ignored for market and
	// stop orders; for stop orders it is the stop trigger price.
	SubmitOrder(ctx context.Context, spread domain.CalendarSpread, side domain.OrderSide, qty int, orderType domain.OrderType, limitPrice float64) (int64, error)

	// CancelOrder cancels an existing open order by its ID.
	CancelOrder(ctx context.Context, orderID int64) error

	// SetOrderEventHandler registers the handler invoked for asynchronous
	// order-status events. Must be called before any order is submitted.
	SetOrderEventHandler(handler OrderEventHandler)
}
