package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earningsSpreadBot/internal/domain"
)

func planConfig(t *testing.T) PlanConfig {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return PlanConfig{
		MarketTimezone:      loc,
		OptionType:          domain.Call,
		ShortExpiryLeadDays: 20,
		ExpiryGapDays:       30,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanTrade(t *testing.T) {
	cfg := planConfig(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, cfg.MarketTimezone)
	signal := &domain.ScreeningSignal{AsOfDate: now, UnderlyingPrice: 150.4}

	tests := []struct {
		name          string
		event         *domain.EarningsEvent
		expectedEntry string
		expectedExit  string
	}{
		{
			name:          "after close midweek reacts next session",
			event:         &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 5), Timing: domain.AfterMarketClose}, // Thursday
			expectedEntry: "2025-06-05 15:45",
			expectedExit:  "2025-06-06 09:45",
		},
		{
			name:          "before open reacts same day",
			event:         &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 6), Timing: domain.BeforeMarketOpen}, // Friday
			expectedEntry: "2025-06-05 15:45",
			expectedExit:  "2025-06-06 09:45",
		},
		{
			name:          "entry on a Sunday rolls back to Friday",
			event:         &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 9), Timing: domain.BeforeMarketOpen}, // Monday
			expectedEntry: "2025-06-06 15:45",
			expectedExit:  "2025-06-09 09:45",
		},
		{
			name:          "exit on a Saturday rolls forward to Monday",
			event:         &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 6), Timing: domain.AfterMarketClose}, // Friday
			expectedEntry: "2025-06-06 15:45",
			expectedExit:  "2025-06-09 09:45",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade, err := PlanTrade(tt.event, signal, now, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEntry, trade.EntryTime.Format("2006-01-02 15:04"))
			assert.Equal(t, tt.expectedExit, trade.ExitTime.Format("2006-01-02 15:04"))
			assert.Equal(t, cfg.MarketTimezone, trade.EntryTime.Location())
			assert.Equal(t, domain.StatusPendingEntry, trade.Status)
		})
	}
}

func TestPlanTrade_SpreadDefinition(t *testing.T) {
	cfg := planConfig(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, cfg.MarketTimezone)
	event := &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 5), Timing: domain.AfterMarketClose}

	trade, err := PlanTrade(event, &domain.ScreeningSignal{AsOfDate: now, UnderlyingPrice: 150.5}, now, cfg)
	require.NoError(t, err)

	assert.Equal(t, 151.0, trade.Spread.Strike) // nearest whole strike
	assert.Equal(t, domain.Call, trade.Spread.Right)
	// Thursday entry plus the 20-day lead, then the 30-day gap.
	assert.Equal(t, "2025-06-25", trade.Spread.ShortExpiry.Format("2006-01-02"))
	assert.Equal(t, "2025-07-25", trade.Spread.LongExpiry.Format("2006-01-02"))

	trade, err = PlanTrade(event, &domain.ScreeningSignal{AsOfDate: now, UnderlyingPrice: 150.4}, now, cfg)
	require.NoError(t, err)
	assert.Equal(t, 150.0, trade.Spread.Strike)
}

func TestPlanTrade_EntryInPast(t *testing.T) {
	cfg := planConfig(t)
	event := &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 5), Timing: domain.AfterMarketClose}
	now := time.Date(2025, 6, 5, 16, 0, 0, 0, cfg.MarketTimezone) // past the 15:45 entry

	_, err := PlanTrade(event, &domain.ScreeningSignal{AsOfDate: now, UnderlyingPrice: 150}, now, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in the past")
}

func TestPlanTrade_RequiresTimezone(t *testing.T) {
	event := &domain.EarningsEvent{Ticker: "AAPL", ReportDate: day(2025, 6, 5), Timing: domain.AfterMarketClose}
	_, err := PlanTrade(event, &domain.ScreeningSignal{}, time.Time{}, PlanConfig{})
	require.Error(t, err)
}
