package screener

import (
	"context"
	"fmt"
	"math"
	"time"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ports"
	"earningsSpreadBot/internal/volatility"
)

// Lookback window of daily history requested for a scan; generous enough for
// the 30-session volatility window across holidays.
const historyLookbackDays = 400

// Config holds the threshold parameters for screening.
type Config struct {
	AvgVolumeThreshold float64 // Rule 1: minimum 30-day average share volume
	IVRVRatioThreshold float64 // Rule 2: minimum IV30 / RV30
	TermSlopeThreshold float64 // Rule 3: maximum term-structure slope
	MacroEventDaysAway int     // Rule 4: macro veto window in days
}

// Screener evaluates tickers against the volatility model and threshold rules.
type Screener struct {
	cfg        Config
	logger     ports.Logger
	marketData ports.MarketDataProvider
	macro      ports.MacroCalendarProvider
}

// New creates a new Screener instance.
func New(cfg Config, logger ports.Logger, marketData ports.MarketDataProvider, macro ports.MacroCalendarProvider) (*Screener, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for screener")
	}
	if marketData == nil {
		return nil, fmt.Errorf("market data provider is required for screener")
	}
	if cfg.AvgVolumeThreshold <= 0 || cfg.IVRVRatioThreshold <= 0 {
		return nil, fmt.Errorf("screening thresholds must be positive")
	}
	return &Screener{cfg: cfg, logger: logger, marketData: marketData, macro: macro}, nil
}

// Scan fetches price history, volatility samples and the macro calendar for
// one ticker and evaluates the screening rules. Provider faults are returned;
// insufficient data yields an Avoid signal, logged, not raised.
func (s *Screener) Scan(ctx context.Context, ticker string, asOf time.Time) (*domain.ScreeningSignal, error) {
	start := asOf.AddDate(0, 0, -historyLookbackDays)
	bars, err := s.marketData.GetBars(ctx, ticker, start, asOf, "day")
	if err != nil {
		return nil, fmt.Errorf("fetching price history for %s: %w", ticker, err)
	}

	samples, err := s.marketData.GetVolatilitySamples(ctx, ticker, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching volatility samples for %s: %w", ticker, err)
	}

	macroClear, macroReason := s.macroEventClear(ctx)

	return s.Evaluate(ctx, ticker, asOf, bars, samples, macroClear, macroReason), nil
}

// macroEventClear consults the macro calendar. Absence of data, or a failed
// check, defaults to clear: the veto is a refinement, not a prerequisite.
func (s *Screener) macroEventClear(ctx context.Context) (bool, string) {
	if s.macro == nil {
		return true, "macro calendar not configured"
	}
	near, reason, err := s.macro.IsMacroEventNear(ctx, s.cfg.MacroEventDaysAway)
	if err != nil {
		s.logger.Warn(ctx, "Macro event check failed, treating as clear", map[string]interface{}{"error": err.Error()})
		return true, fmt.Sprintf("macro check failed: %v", err)
	}
	return !near, reason
}

// Evaluate applies the four screening rules, in order, to already-fetched
// inputs. Every rule outcome is recorded on the signal even when an earlier
// rule fails.
func (s *Screener) Evaluate(ctx context.Context, ticker string, asOf time.Time, bars []*domain.PriceBar, samples []*domain.VolatilitySample, macroClear bool, macroReason string) *domain.ScreeningSignal {
	signal := &domain.ScreeningSignal{
		Ticker:           ticker,
		AsOfDate:         asOf,
		MacroEventClear:  macroClear,
		MacroEventReason: macroReason,
		Recommendation:   domain.Avoid,
	}

	// Insufficient-data short-circuit: signal Avoid, logged, not raised.
	if len(bars) < volatility.DefaultWindow+1 {
		s.logger.Warn(ctx, "Insufficient price history, avoiding", map[string]interface{}{
			"ticker": ticker, "bars": len(bars), "required": volatility.DefaultWindow + 1,
		})
		return signal
	}
	if len(samples) < 2 {
		s.logger.Warn(ctx, "Insufficient volatility samples, avoiding", map[string]interface{}{
			"ticker": ticker, "samples": len(samples),
		})
		return signal
	}

	signal.UnderlyingPrice = bars[len(bars)-1].Close

	avgVolume, err := volatility.AverageVolume(bars, volatility.DefaultWindow)
	if err != nil {
		s.logger.Warn(ctx, "Average volume calculation failed, avoiding", map[string]interface{}{"ticker": ticker, "error": err.Error()})
		return signal
	}
	signal.AvgVolume30d = avgVolume

	rv30, err := volatility.RealizedVolatility(bars, volatility.DefaultWindow, volatility.TradingPeriodsPerYear)
	if err != nil {
		s.logger.Warn(ctx, "Realized volatility calculation failed, avoiding", map[string]interface{}{"ticker": ticker, "error": err.Error()})
		return signal
	}
	signal.RealizedVol30d = rv30

	term, err := volatility.NewTermStructure(samples)
	if err != nil {
		s.logger.Warn(ctx, "Term structure construction failed, avoiding", map[string]interface{}{"ticker": ticker, "error": err.Error()})
		return signal
	}

	signal.IV30 = term.At(volatility.DefaultWindow)

	// Rule 1: liquidity gate.
	signal.VolumePassed = avgVolume >= s.cfg.AvgVolumeThreshold

	// Rule 2: implied over realized. A non-positive realized vol makes the
	// ratio +Inf, a deliberate trivially-passing fallback.
	if rv30 > 0 {
		signal.IVRVRatio = signal.IV30 / rv30
	} else {
		signal.IVRVRatio = math.Inf(1)
	}
	signal.IVRVRatioPassed = signal.IVRVRatio >= s.cfg.IVRVRatioThreshold

	// Rule 3: backwardated term structure preferred.
	signal.TermSlope = term.Slope(term.MinDays(), volatility.DefaultFarDTE)
	signal.TermSlopePassed = signal.TermSlope <= s.cfg.TermSlopeThreshold

	// Rule 4 (macro veto) was resolved by the caller.

	switch {
	case signal.CorePassed() && macroClear:
		signal.Recommendation = domain.Recommended
	case signal.CorePassed():
		signal.Recommendation = domain.ConsiderCorePassed
	default:
		signal.Recommendation = domain.Avoid
	}

	s.logger.Debug(ctx, "Screening complete", map[string]interface{}{
		"ticker":         ticker,
		"recommendation": signal.Recommendation,
		"avgVolume":      signal.AvgVolume30d,
		"ivRvRatio":      signal.IVRVRatio,
		"termSlope":      signal.TermSlope,
		"macroClear":     macroClear,
	})
	return signal
}
