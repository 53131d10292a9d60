package analytics

import (
	"math"
	"testing"
	"time"

	"earningsSpreadBot/internal/domain"
)

func sessionRange(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func realizedTrade(exit time.Time, pnl float64) *domain.Trade {
	return &domain.Trade{
		Ticker:           "AAPL",
		ExitTime:         exit,
		Status:           domain.StatusClosedByTime,
		RealizedPnL:      pnl,
		RealizedPnLKnown: true,
	}
}

func TestBuildCapitalCurve(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 3)
	trades := []*domain.Trade{
		realizedTrade(start.AddDate(0, 0, 2), 5000),
	}

	curve := BuildCapitalCurve(trades, 100000, sessions)

	expected := []float64{100000, 100000, 105000}
	if len(curve) != len(expected) {
		t.Fatalf("curve length = %d, expected %d", len(curve), len(expected))
	}
	for i := range expected {
		if curve[i] != expected[i] {
			t.Errorf("curve[%d] = %v, expected %v", i, curve[i], expected[i])
		}
	}
}

func TestBuildCapitalCurve_IgnoresUnpricedTrades(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 3)
	trades := []*domain.Trade{
		{Ticker: "AAPL", ExitTime: start, Status: domain.StatusClosedByTime, RealizedPnL: 9999},
	}

	curve := BuildCapitalCurve(trades, 100000, sessions)
	for i, v := range curve {
		if v != 100000 {
			t.Errorf("curve[%d] = %v, expected flat 100000 for unpriced trade", i, v)
		}
	}
}

func TestComputeMetrics_Summary(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 5)
	trades := []*domain.Trade{
		realizedTrade(start.AddDate(0, 0, 1), 5000),
		realizedTrade(start.AddDate(0, 0, 2), -2000),
		realizedTrade(start.AddDate(0, 0, 3), 3000),
		{Ticker: "X", ExitTime: start, Status: domain.StatusClosedByTime}, // unpriced, excluded
	}

	m := ComputeMetrics(trades, 100000, sessions)

	if m.TotalTrades != 3 {
		t.Errorf("TotalTrades = %d, expected 3", m.TotalTrades)
	}
	if m.WinningTrades != 2 {
		t.Errorf("WinningTrades = %d, expected 2", m.WinningTrades)
	}
	if math.Abs(m.WinRate-2.0/3.0) > 1e-12 {
		t.Errorf("WinRate = %v, expected 2/3", m.WinRate)
	}
	if m.TotalProfit != 6000 {
		t.Errorf("TotalProfit = %v, expected 6000", m.TotalProfit)
	}
	if m.FinalCapital != 106000 {
		t.Errorf("FinalCapital = %v, expected 106000", m.FinalCapital)
	}
	if m.AveragePnL != 2000 {
		t.Errorf("AveragePnL = %v, expected 2000", m.AveragePnL)
	}
}

func TestComputeMetrics_Sharpe(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 3)
	trades := []*domain.Trade{
		realizedTrade(start.AddDate(0, 0, 2), 5000),
	}

	m := ComputeMetrics(trades, 100000, sessions)

	// Daily returns are [0, 0.05]: mean 0.025, sample stddev 0.05/sqrt(2),
	// annualized by sqrt(252).
	expected := 0.025 / (0.05 / math.Sqrt2) * math.Sqrt(252)
	if math.Abs(m.SharpeRatio-expected) > 1e-9 {
		t.Errorf("SharpeRatio = %v, expected %v", m.SharpeRatio, expected)
	}
}

func TestComputeMetrics_SharpeZeroWhenFlat(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	m := ComputeMetrics(nil, 100000, sessionRange(start, 5))

	if m.SharpeRatio != 0 {
		t.Errorf("SharpeRatio = %v, expected 0 for zero-variance returns", m.SharpeRatio)
	}
	if m.MaxDrawdownPct != 0 || m.MaxDrawdownDays != 0 || !m.Recovered {
		t.Errorf("expected no drawdown on a flat curve, got %v / %d / %v",
			m.MaxDrawdownPct, m.MaxDrawdownDays, m.Recovered)
	}
}

func TestComputeMetrics_DrawdownWithRecovery(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 5)
	trades := []*domain.Trade{
		realizedTrade(start.AddDate(0, 0, 1), -10000),
		realizedTrade(start.AddDate(0, 0, 3), 10000),
	}

	m := ComputeMetrics(trades, 100000, sessions)

	if math.Abs(m.MaxDrawdownPct-(-0.10)) > 1e-12 {
		t.Errorf("MaxDrawdownPct = %v, expected -0.10", m.MaxDrawdownPct)
	}
	if !m.Recovered {
		t.Fatal("expected the drawdown to be marked recovered")
	}
	// Peak on the first session, recovery on the fourth.
	if m.MaxDrawdownDays != 3 {
		t.Errorf("MaxDrawdownDays = %d, expected 3", m.MaxDrawdownDays)
	}
}

func TestComputeMetrics_DrawdownNotRecovered(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sessions := sessionRange(start, 3)
	trades := []*domain.Trade{
		realizedTrade(start.AddDate(0, 0, 1), -10000),
	}

	m := ComputeMetrics(trades, 100000, sessions)

	if math.Abs(m.MaxDrawdownPct-(-0.10)) > 1e-12 {
		t.Errorf("MaxDrawdownPct = %v, expected -0.10", m.MaxDrawdownPct)
	}
	if m.Recovered {
		t.Error("expected the drawdown to be marked unrecovered")
	}
}
