package volatility

import (
	"fmt"
	"math"

	"earningsSpreadBot/internal/domain"
)

const (
	// DefaultWindow is the trailing window, in sessions, for realized volatility.
	DefaultWindow = 30
	// TradingPeriodsPerYear is the annualization factor for daily bars.
	TradingPeriodsPerYear = 252
)

// RealizedVolatility computes the Yang-Zhang annualized volatility estimator
// over the trailing window of the given bars. The estimator blends an
// open-to-close drift term, a close-to-close term and a high/low range term,
// weighted to reduce drift bias.
//
// Requires at least window+1 bars (the first bar only supplies the prior
// close). Bars must be ordered ascending by time.
func RealizedVolatility(bars []*domain.PriceBar, window, periodsPerYear int) (float64, error) {
	if window < 2 {
		return 0, fmt.Errorf("window must be at least 2, got %d", window)
	}
	if len(bars) < window+1 {
		return 0, fmt.Errorf("need at least %d bars for a %d-session window, got %d", window+1, window, len(bars))
	}

	var closeSum, openSum, rsSum float64
	// Trailing window: the last `window` bars, each paired with its predecessor.
	for i := len(bars) - window; i < len(bars); i++ {
		cur, prev := bars[i], bars[i-1]
		if cur.Open <= 0 || cur.High <= 0 || cur.Low <= 0 || cur.Close <= 0 || prev.Close <= 0 {
			return 0, fmt.Errorf("non-positive price in bar at %s", cur.Timestamp.Format("2006-01-02"))
		}

		logHO := math.Log(cur.High / cur.Open)
		logLO := math.Log(cur.Low / cur.Open)
		logCO := math.Log(cur.Close / cur.Open)
		logOC := math.Log(cur.Open / prev.Close)
		logCC := math.Log(cur.Close / prev.Close)

		closeSum += logCC * logCC
		openSum += logOC * logOC
		rsSum += logHO*(logHO-logCO) + logLO*(logLO-logCO)
	}

	w := float64(window)
	closeVol := closeSum / (w - 1)
	openVol := openSum / (w - 1)
	windowRS := rsSum / (w - 1)

	k := 0.34 / (1.34 + (w+1)/(w-1))
	return math.Sqrt(openVol+k*closeVol+(1-k)*windowRS) * math.Sqrt(float64(periodsPerYear)), nil
}

// AverageVolume returns the mean volume of the trailing window of bars.
// Requires at least window bars.
func AverageVolume(bars []*domain.PriceBar, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("window must be positive, got %d", window)
	}
	if len(bars) < window {
		return 0, fmt.Errorf("need at least %d bars, got %d", window, len(bars))
	}
	var sum float64
	for _, b := range bars[len(bars)-window:] {
		sum += b.Volume
	}
	return sum / float64(window), nil
}
