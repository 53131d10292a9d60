package csvdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ports"
	"earningsSpreadBot/internal/utils"
)

// Provider is a file-backed implementation of the market-data, earnings-
// calendar and macro-calendar ports, reading fixtures from a data directory:
//
//	<TICKER>_day.csv     price bars (utils.WriteBarsToCSV layout)
//	<TICKER>_iv.csv      as_of,days_to_expiry,implied_vol
//	spreads.csv          ticker,at,price (at in RFC3339, minute resolution)
//	events.csv           ticker,report_date,timing
//	macro.csv            date,event (optional)
//
// Used by backtests and the paper-trading entrypoint.
type Provider struct {
	dir    string
	logger ports.Logger
	now    func() time.Time

	mu      sync.Mutex
	bars    map[string][]*domain.PriceBar
	spreads map[string]float64 // key: ticker|RFC3339-minute
}

// Config holds options for the CSV data provider.
type Config struct {
	Dir    string
	Logger ports.Logger
}

// New creates a provider rooted at the configured directory.
func New(cfg Config) (*Provider, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", cfg.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", cfg.Dir)
	}
	return &Provider{
		dir:    cfg.Dir,
		logger: cfg.Logger,
		now:    time.Now,
		bars:   make(map[string][]*domain.PriceBar),
	}, nil
}

// GetBars implements ports.MarketDataProvider.
func (p *Provider) GetBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]*domain.PriceBar, error) {
	all, err := p.loadBars(ticker, interval)
	if err != nil {
		return nil, err
	}
	var out []*domain.PriceBar
	for _, b := range all {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *Provider) loadBars(ticker, interval string) ([]*domain.PriceBar, error) {
	key := ticker + "_" + interval
	p.mu.Lock()
	defer p.mu.Unlock()
	if bars, ok := p.bars[key]; ok {
		return bars, nil
	}
	bars, err := utils.ReadBarsFromCSV(filepath.Join(p.dir, key+".csv"))
	if err != nil {
		return nil, fmt.Errorf("loading bars for %s: %w", ticker, err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	p.bars[key] = bars
	return bars, nil
}

// GetVolatilitySamples implements ports.MarketDataProvider.
func (p *Provider) GetVolatilitySamples(ctx context.Context, ticker string, asOf time.Time) ([]*domain.VolatilitySample, error) {
	records, err := readCSV(filepath.Join(p.dir, ticker+"_iv.csv"))
	if err != nil {
		return nil, fmt.Errorf("loading volatility samples for %s: %w", ticker, err)
	}
	asOfDate := asOf.Format("2006-01-02")
	var samples []*domain.VolatilitySample
	for i, rec := range records {
		if i == 0 || len(rec) < 3 {
			continue
		}
		if rec[0] != asOfDate {
			continue
		}
		dte, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s_iv.csv line %d: %w", ticker, i+1, err)
		}
		iv, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s_iv.csv line %d: %w", ticker, i+1, err)
		}
		samples = append(samples, &domain.VolatilitySample{DaysToExpiry: dte, ImpliedVol: iv})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].DaysToExpiry < samples[j].DaysToExpiry })
	return samples, nil
}

// GetSpreadPrice implements ports.MarketDataProvider. Lookup is exact to the
// minute; a missing row is reported as ErrPriceUnavailable, not a fault.
func (p *Provider) GetSpreadPrice(ctx context.Context, spread domain.CalendarSpread, at time.Time) (float64, error) {
	if err := p.loadSpreads(); err != nil {
		return 0, err
	}
	key := spreadKey(spread.Ticker, at)
	p.mu.Lock()
	price, ok := p.spreads[key]
	p.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("no spread price for %s at %s: %w", spread.Ticker, at.Format(time.RFC3339), ports.ErrPriceUnavailable)
	}
	return price, nil
}

func (p *Provider) loadSpreads() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spreads != nil {
		return nil
	}
	records, err := readCSV(filepath.Join(p.dir, "spreads.csv"))
	if err != nil {
		return fmt.Errorf("loading spread prices: %w", err)
	}
	p.spreads = make(map[string]float64, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 3 {
			continue
		}
		at, err := time.Parse(time.RFC3339, rec[1])
		if err != nil {
			return fmt.Errorf("spreads.csv line %d: %w", i+1, err)
		}
		price, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return fmt.Errorf("spreads.csv line %d: %w", i+1, err)
		}
		p.spreads[spreadKey(rec[0], at)] = price
	}
	return nil
}

func spreadKey(ticker string, at time.Time) string {
	return strings.ToUpper(ticker) + "|" + at.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// GetUpcomingEvents implements ports.EarningsCalendarProvider.
func (p *Provider) GetUpcomingEvents(ctx context.Context, horizonDays int) ([]*domain.EarningsEvent, error) {
	now := p.now()
	return p.GetHistoricalEvents(ctx, now, now.AddDate(0, 0, horizonDays))
}

// GetHistoricalEvents implements ports.EarningsCalendarProvider.
func (p *Provider) GetHistoricalEvents(ctx context.Context, start, end time.Time) ([]*domain.EarningsEvent, error) {
	all, err := utils.ReadEventsFromCSV(filepath.Join(p.dir, "events.csv"))
	if err != nil {
		return nil, fmt.Errorf("loading earnings calendar: %w", err)
	}
	var out []*domain.EarningsEvent
	for _, ev := range all {
		if ev.ReportDate.Before(start.Truncate(24*time.Hour)) || ev.ReportDate.After(end) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out, nil
}

// IsMacroEventNear implements ports.MacroCalendarProvider. A missing macro
// file means no known events; the veto then never trips.
func (p *Provider) IsMacroEventNear(ctx context.Context, daysAhead int) (bool, string, error) {
	path := filepath.Join(p.dir, "macro.csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, "no macro calendar data", nil
	}
	records, err := readCSV(path)
	if err != nil {
		return false, "", fmt.Errorf("loading macro calendar: %w", err)
	}
	today := p.now()
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return false, "", fmt.Errorf("macro.csv line %d: %w", i+1, err)
		}
		delta := int(date.Sub(today).Hours() / 24)
		if delta >= 0 && delta <= daysAhead {
			return true, fmt.Sprintf("upcoming event: %s on %s", rec[1], rec[0]), nil
		}
	}
	return false, "no major macro events found", nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return csv.NewReader(file).ReadAll()
}
