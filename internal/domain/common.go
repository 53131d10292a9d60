package domain

// ContractMultiplier is the share deliverable per standard US equity option contract.
const ContractMultiplier = 100

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType represents the execution type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MKT"
	OrderTypeLimit  OrderType = "LMT"
	OrderTypeStop   OrderType = "STP"
)

// OptionRight represents the right of an option contract.
type OptionRight string

const (
	Call OptionRight = "CALL"
	Put  OptionRight = "PUT"
)

// EventTiming indicates when an earnings announcement happens relative to the session.
type EventTiming string

const (
	BeforeMarketOpen  EventTiming = "bmo"
	AfterMarketClose  EventTiming = "amc"
	DuringMarketHours EventTiming = "dmh"
)

// TradeStatus represents the lifecycle state of a scheduled trade.
type TradeStatus string

const (
	StatusPendingEntry    TradeStatus = "pending_entry"
	StatusProcessingEntry TradeStatus = "processing_entry"
	StatusOpen            TradeStatus = "open"
	StatusSkipped         TradeStatus = "skipped"
	StatusClosedByStop    TradeStatus = "closed_by_stop"
	StatusClosedByTime    TradeStatus = "closed_by_time"
)

// IsTerminal reports whether no further transition is defined for the status.
func (s TradeStatus) IsTerminal() bool {
	return s == StatusSkipped || s == StatusClosedByStop || s == StatusClosedByTime
}

// Recommendation is the screening verdict for a ticker.
type Recommendation string

const (
	Recommended        Recommendation = "Recommended"
	ConsiderCorePassed Recommendation = "Consider (Core Passed)"
	Avoid              Recommendation = "Avoid"
)
