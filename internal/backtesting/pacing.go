package backtesting

import (
	"context"
	"time"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ports"
)

// PacedMarketData wraps a MarketDataProvider with a fixed delay before every
// call. Historical vendors impose per-call rate limits; the delay is a
// collaborator-imposed pacing rule, not part of the replay algorithm.
type PacedMarketData struct {
	inner ports.MarketDataProvider
	delay time.Duration
}

// NewPacedMarketData wraps the provider. A zero delay disables pacing.
func NewPacedMarketData(inner ports.MarketDataProvider, delay time.Duration) *PacedMarketData {
	return &PacedMarketData{inner: inner, delay: delay}
}

func (p *PacedMarketData) pace(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

// GetBars implements ports.MarketDataProvider.
func (p *PacedMarketData) GetBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]*domain.PriceBar, error) {
	if err := p.pace(ctx); err != nil {
		return nil, err
	}
	return p.inner.GetBars(ctx, ticker, start, end, interval)
}

// GetVolatilitySamples implements ports.MarketDataProvider.
func (p *PacedMarketData) GetVolatilitySamples(ctx context.Context, ticker string, asOf time.Time) ([]*domain.VolatilitySample, error) {
	if err := p.pace(ctx); err != nil {
		return nil, err
	}
	return p.inner.GetVolatilitySamples(ctx, ticker, asOf)
}

// GetSpreadPrice implements ports.MarketDataProvider.
func (p *PacedMarketData) GetSpreadPrice(ctx context.Context, spread domain.CalendarSpread, at time.Time) (float64, error) {
	if err := p.pace(ctx); err != nil {
		return 0, err
	}
	return p.inner.GetSpreadPrice(ctx, spread, at)
}
