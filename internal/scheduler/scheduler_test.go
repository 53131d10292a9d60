package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ledger"
	"earningsSpreadBot/internal/ports"
)

// Mock implementations

type mockLogger struct {
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type quoteResult struct {
	price float64
	err   error
}

type submittedOrder struct {
	spread     domain.CalendarSpread
	side       domain.OrderSide
	qty        int
	orderType  domain.OrderType
	limitPrice float64
}

type mockGateway struct {
	handler ports.OrderEventHandler

	quoteQueue []quoteResult // consumed per call; the last entry repeats

	nextID    int64
	submitted []submittedOrder
	submitErr error

	cancelled []int64
	cancelErr error
}

func (m *mockGateway) AccountValue(ctx context.Context) (float64, error) { return 0, nil }

func (m *mockGateway) QuoteSpread(ctx context.Context, spread domain.CalendarSpread, timeout time.Duration) (float64, error) {
	if len(m.quoteQueue) == 0 {
		return 0, ports.ErrPriceUnavailable
	}
	q := m.quoteQueue[0]
	if len(m.quoteQueue) > 1 {
		m.quoteQueue = m.quoteQueue[1:]
	}
	return q.price, q.err
}

func (m *mockGateway) SubmitOrder(ctx context.Context, spread domain.CalendarSpread, side domain.OrderSide, qty int, orderType domain.OrderType, limitPrice float64) (int64, error) {
	if m.submitErr != nil {
		return 0, m.submitErr
	}
	m.nextID++
	m.submitted = append(m.submitted, submittedOrder{spread: spread, side: side, qty: qty, orderType: orderType, limitPrice: limitPrice})
	return m.nextID, nil
}

func (m *mockGateway) CancelOrder(ctx context.Context, orderID int64) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

func (m *mockGateway) SetOrderEventHandler(handler ports.OrderEventHandler) { m.handler = handler }

// Test fixtures

func newTestScheduler(t *testing.T, gw *mockGateway, initialCapital float64) (*Scheduler, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	capital, err := ledger.New(initialCapital)
	require.NoError(t, err)
	s, err := New(Config{
		RiskAllocationPercent: 0.15,
		StopLossPercent:       0.40,
		EntryOrderType:        domain.OrderTypeLimit,
		QuoteTimeout:          10 * time.Second,
	}, logger, gw, capital)
	require.NoError(t, err)
	return s, logger
}

func pendingTrade(entry, exit time.Time) *domain.Trade {
	return &domain.Trade{
		Ticker: "AAPL",
		Spread: domain.CalendarSpread{
			Ticker: "AAPL",
			Strike: 150,
			Right:  domain.Call,
		},
		EntryTime: entry,
		ExitTime:  exit,
		Status:    domain.StatusPendingEntry,
	}
}

var (
	entryAt = time.Date(2025, 6, 5, 15, 45, 0, 0, time.UTC)
	exitAt  = time.Date(2025, 6, 6, 9, 45, 0, 0, time.UTC)
)

func TestScheduler_EntryFlow(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	// Before the entry instant nothing happens.
	s.Tick(ctx, entryAt.Add(-time.Minute))
	assert.Equal(t, domain.StatusPendingEntry, trade.Status)
	assert.Empty(t, gw.submitted)

	// 100000 * 0.15 / (2.00 * 100) = 75 contracts.
	s.Tick(ctx, entryAt)
	assert.Equal(t, domain.StatusProcessingEntry, trade.Status)
	require.Len(t, gw.submitted, 1)
	entry := gw.submitted[0]
	assert.Equal(t, domain.Buy, entry.side)
	assert.Equal(t, 75, entry.qty)
	assert.Equal(t, domain.OrderTypeLimit, entry.orderType)
	assert.Equal(t, 2.00, entry.limitPrice)
	require.NotNil(t, trade.EntryOrderID)

	// Entry fill arrives; position opens and a protective stop goes out at
	// the fill price plus the stop distance.
	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.EntryOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 2.50,
	})
	assert.Equal(t, domain.StatusOpen, trade.Status)
	assert.Equal(t, 75, trade.PositionSize)
	assert.Equal(t, 2.50, trade.EntryFillPrice)
	require.Len(t, gw.submitted, 2)
	stop := gw.submitted[1]
	assert.Equal(t, domain.Sell, stop.side)
	assert.Equal(t, domain.OrderTypeStop, stop.orderType)
	assert.Equal(t, 3.50, stop.limitPrice)
	require.NotNil(t, trade.StopLossOrderID)
}

func TestScheduler_TickIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.Tick(ctx, entryAt.Add(30*time.Second))
	s.Tick(ctx, entryAt.Add(time.Minute))

	// In-flight entry is not re-submitted on later ticks.
	assert.Equal(t, domain.StatusProcessingEntry, trade.Status)
	assert.Len(t, gw.submitted, 1)
}

func TestScheduler_SkipsWhenUnpriced(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{err: ports.ErrPriceUnavailable}}}
	s, logger := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	assert.Equal(t, domain.StatusSkipped, trade.Status)
	assert.Empty(t, gw.submitted)
	assert.NotEmpty(t, logger.warnMsgs)

	// Skipped is terminal; later ticks and stray fills change nothing.
	s.Tick(ctx, exitAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{OrderID: 99, Status: ports.OrderStatusFilled, FilledQty: 1, AvgFillPrice: 1})
	assert.Equal(t, domain.StatusSkipped, trade.Status)
	assert.Empty(t, gw.submitted)
	assert.Equal(t, 0, s.ActiveCount())
}

func TestScheduler_SkipsWhenPositionSizeZero(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 1000) // 1000 * 0.15 buys no 200-dollar spread
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	assert.Equal(t, domain.StatusSkipped, trade.Status)
	assert.Empty(t, gw.submitted)
}

func TestScheduler_EntrySubmissionFailure(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{
		quoteQueue: []quoteResult{{price: 2.00}},
		submitErr:  errors.New("gateway disconnected"),
	}
	s, logger := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)

	// The trade holds its last known state for manual reconciliation.
	assert.Equal(t, domain.StatusProcessingEntry, trade.Status)
	assert.Nil(t, trade.EntryOrderID)
	assert.NotEmpty(t, logger.errorMsgs)
}

func TestScheduler_StopFillClosesAndRealizesLoss(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.EntryOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 2.50,
	})
	require.Equal(t, domain.StatusOpen, trade.Status)

	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.StopLossOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 1.50,
	})
	assert.Equal(t, domain.StatusClosedByStop, trade.Status)
	require.True(t, trade.RealizedPnLKnown)
	// (1.50 - 2.50) * 100 * 75
	assert.Equal(t, -7500.0, trade.RealizedPnL)
	assert.Equal(t, 92500.0, s.capital.Capital())
}

func TestScheduler_TimeExitBooksAssumedPrice(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{
		{price: 2.00}, // entry quote
		{price: 3.00}, // exit quote
	}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.EntryOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 2.50,
	})
	stopID := *trade.StopLossOrderID

	s.Tick(ctx, exitAt)

	assert.Equal(t, domain.StatusClosedByTime, trade.Status)
	assert.Equal(t, []int64{stopID}, gw.cancelled)
	require.Len(t, gw.submitted, 3)
	closing := gw.submitted[2]
	assert.Equal(t, domain.Sell, closing.side)
	assert.Equal(t, domain.OrderTypeMarket, closing.orderType)
	assert.Equal(t, 75, closing.qty)

	// P&L books from the exit quote, not a closing fill: (3.00 - 2.50) * 100 * 75.
	require.True(t, trade.RealizedPnLKnown)
	assert.Equal(t, 3750.0, trade.RealizedPnL)
	assert.Equal(t, 103750.0, s.capital.Capital())

	// The assumed exit is final; a late closing fill must not double-book.
	s.OnOrderStatus(ctx, ports.OrderEvent{OrderID: gw.nextID, Status: ports.OrderStatusFilled, FilledQty: 75, AvgFillPrice: 3.10})
	assert.Equal(t, 3750.0, trade.RealizedPnL)
	assert.Equal(t, 103750.0, s.capital.Capital())
}

func TestScheduler_TimeExitUnpriced(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{
		{price: 2.00},
		{err: ports.ErrPriceUnavailable},
	}}
	s, logger := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.EntryOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 2.50,
	})

	s.Tick(ctx, exitAt)

	assert.Equal(t, domain.StatusClosedByTime, trade.Status)
	assert.False(t, trade.RealizedPnLKnown)
	assert.Equal(t, 100000.0, s.capital.Capital())
	assert.NotEmpty(t, logger.warnMsgs)
}

func TestScheduler_ExitSubmissionFailureLeavesTradeOpen(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, logger := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{
		OrderID: *trade.EntryOrderID, Status: ports.OrderStatusFilled,
		FilledQty: 75, AvgFillPrice: 2.50,
	})

	gw.submitErr = errors.New("gateway disconnected")
	s.Tick(ctx, exitAt)

	assert.Equal(t, domain.StatusOpen, trade.Status)
	assert.False(t, trade.RealizedPnLKnown)
	assert.NotEmpty(t, logger.errorMsgs)
}

func TestScheduler_IgnoresNonFillEvents(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(ctx, trade)

	s.Tick(ctx, entryAt)
	s.OnOrderStatus(ctx, ports.OrderEvent{OrderID: *trade.EntryOrderID, Status: ports.OrderStatusSubmitted})
	assert.Equal(t, domain.StatusProcessingEntry, trade.Status)
}

func TestScheduler_HaltedAfterShutdown(t *testing.T) {
	gw := &mockGateway{quoteQueue: []quoteResult{{price: 2.00}}}
	s, _ := newTestScheduler(t, gw, 100000)
	trade := pendingTrade(entryAt, exitAt)
	s.Enqueue(context.Background(), trade)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx, time.Millisecond))

	// A halted scheduler issues no further orders.
	s.Tick(context.Background(), entryAt)
	assert.Equal(t, domain.StatusPendingEntry, trade.Status)
	assert.Empty(t, gw.submitted)
}
