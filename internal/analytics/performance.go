package analytics

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"earningsSpreadBot/internal/domain"
)

// Metrics holds risk-adjusted performance statistics derived from a run's
// realized trades replayed onto a daily capital curve.
type Metrics struct {
	// Summary
	TotalTrades   int
	WinningTrades int
	WinRate       float64
	TotalProfit   float64
	FinalCapital  float64
	AveragePnL    float64

	// Risk-adjusted
	SharpeRatio    float64 // Annualized, 0 when return stddev is 0
	MaxDrawdownPct float64 // Most negative (value - peak) / peak, <= 0

	// Days from the peak preceding the deepest trough to the first session
	// the curve recovers to the peak value. Valid only when Recovered is
	// true; an unrecovered drawdown is a sentinel, not an error.
	MaxDrawdownDays int
	Recovered       bool
}

// BuildCapitalCurve forward-fills initialCapital across each session and
// applies every realized trade's P&L on and after its exit date. Sessions
// must be ordered ascending; trades without a known realized P&L are ignored.
func BuildCapitalCurve(trades []*domain.Trade, initialCapital float64, sessions []time.Time) []float64 {
	curve := make([]float64, len(sessions))
	for i := range curve {
		curve[i] = initialCapital
	}
	for _, trade := range trades {
		if !trade.RealizedPnLKnown {
			continue
		}
		exit := dateOf(trade.ExitTime)
		for i, session := range sessions {
			if !dateOf(session).Before(exit) {
				curve[i] += trade.RealizedPnL
			}
		}
	}
	return curve
}

// ComputeMetrics derives Sharpe, max drawdown and drawdown duration from the
// realized trades of a run over the given trading-session dates.
func ComputeMetrics(trades []*domain.Trade, initialCapital float64, sessions []time.Time) *Metrics {
	m := &Metrics{FinalCapital: initialCapital, Recovered: true}

	for _, trade := range trades {
		if !trade.RealizedPnLKnown {
			continue
		}
		m.TotalTrades++
		m.TotalProfit += trade.RealizedPnL
		if trade.RealizedPnL > 0 {
			m.WinningTrades++
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
		m.AveragePnL = m.TotalProfit / float64(m.TotalTrades)
	}
	m.FinalCapital = initialCapital + m.TotalProfit

	if len(sessions) < 2 {
		return m
	}

	curve := BuildCapitalCurve(trades, initialCapital, sessions)

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, curve[i]/curve[i-1]-1)
	}

	mean, _ := stats.Mean(returns)
	stdDev, err := stats.StandardDeviationSample(returns)
	if err == nil && stdDev != 0 {
		m.SharpeRatio = mean / stdDev * math.Sqrt(TradingDaysPerYear)
	}

	m.MaxDrawdownPct, m.MaxDrawdownDays, m.Recovered = maxDrawdown(curve, sessions)
	return m
}

// TradingDaysPerYear annualizes daily return statistics.
const TradingDaysPerYear = 252

// maxDrawdown walks the curve tracking the running peak, returning the most
// negative drawdown, and the days between the peak preceding the deepest
// trough and the first subsequent recovery to that peak value.
func maxDrawdown(curve []float64, sessions []time.Time) (maxDD float64, durationDays int, recovered bool) {
	runningMax := curve[0]
	troughIdx := 0
	for i, v := range curve {
		if v > runningMax {
			runningMax = v
		}
		if runningMax == 0 {
			continue
		}
		dd := (v - runningMax) / runningMax
		if dd < maxDD {
			maxDD = dd
			troughIdx = i
		}
	}
	if maxDD == 0 {
		return 0, 0, true
	}

	// Peak preceding the trough: first occurrence of the maximum value.
	peakIdx := 0
	for i := 1; i <= troughIdx; i++ {
		if curve[i] > curve[peakIdx] {
			peakIdx = i
		}
	}

	for i := troughIdx; i < len(curve); i++ {
		if curve[i] >= curve[peakIdx] {
			days := int(dateOf(sessions[i]).Sub(dateOf(sessions[peakIdx])).Hours() / 24)
			return maxDD, days, true
		}
	}
	return maxDD, 0, false
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
