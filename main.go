package main

import (
	"context"
	"flag"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"
	"time"

	"earningsSpreadBot/config"
	"earningsSpreadBot/internal/adapters/csvdata"
	"earningsSpreadBot/internal/adapters/logger"
	"earningsSpreadBot/internal/adapters/papergateway"
	"earningsSpreadBot/internal/domain"
	"earningsSpreadBot/internal/ledger"
	"earningsSpreadBot/internal/ports"
	"earningsSpreadBot/internal/scheduler"
	"earningsSpreadBot/internal/screener"
)

func main() {
	dataDir := flag.String("data", "data", "Directory holding price, volatility and calendar CSV files")
	horizonDays := flag.Int("horizon", 7, "How many days ahead to scan the earnings calendar")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Console: true})
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Data Providers (CSV Adapter)
	provider, err := csvdata.New(csvdata.Config{
		Dir:    *dataDir,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize data provider")
		log.Fatalf("FATAL: Failed to initialize data provider: %v", err)
	}
	appLogger.Info(context.Background(), "Data provider initialized", map[string]interface{}{"dir": *dataDir})

	// 4. Initialize Execution Gateway (Paper Adapter)
	gateway, err := papergateway.New(papergateway.Config{
		Logger:      appLogger,
		MarketData:  provider,
		InitialCash: cfg.InitialCapital,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize paper gateway")
		log.Fatalf("FATAL: Failed to initialize paper gateway: %v", err)
	}
	appLogger.Info(context.Background(), "Paper execution gateway initialized")

	// 5. Initialize Capital Ledger
	capital, err := ledger.New(cfg.InitialCapital)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize capital ledger")
		log.Fatalf("FATAL: Failed to initialize capital ledger: %v", err)
	}

	// 6. Initialize Screener
	screen, err := screener.New(screener.Config{
		AvgVolumeThreshold: cfg.AvgVolumeThreshold,
		IVRVRatioThreshold: cfg.IVRVRatioThreshold,
		TermSlopeThreshold: cfg.TermSlopeThreshold,
		MacroEventDaysAway: cfg.MacroEventDaysAway,
	}, appLogger, provider, provider)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize screener")
		log.Fatalf("FATAL: Failed to initialize screener: %v", err)
	}
	appLogger.Info(context.Background(), "Screener initialized")

	// 7. Initialize Scheduler
	sched, err := scheduler.New(scheduler.Config{
		RiskAllocationPercent: cfg.RiskAllocationPercent,
		StopLossPercent:       cfg.StopLossPercent,
		EntryOrderType:        cfg.EntryOrderType,
		QuoteTimeout:          cfg.QuoteTimeout,
	}, appLogger, gateway, capital)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize scheduler")
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}
	appLogger.Info(context.Background(), "Scheduler initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 8. Screen the upcoming calendar and schedule accepted candidates
	scheduleCandidates(ctx, appLogger, cfg, provider, screen, sched, *horizonDays)

	if sched.ActiveCount() == 0 {
		appLogger.Info(ctx, "No trades scheduled, nothing to do")
		return
	}

	// 9. Run the lifecycle loop until interrupted; resting paper stop orders
	// are re-checked on the same cadence.
	go func() {
		ticker := time.NewTicker(cfg.SchedulerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gateway.CheckStops(ctx)
			}
		}
	}()

	if err := sched.Run(ctx, cfg.SchedulerInterval); err != nil {
		appLogger.Error(context.Background(), err, "Scheduler exited with error")
		log.Fatalf("FATAL: Scheduler exited with error: %v", err)
	}

	for _, trade := range sched.Trades() {
		fields := map[string]interface{}{
			"ticker": trade.Ticker,
			"status": trade.Status,
		}
		if trade.RealizedPnLKnown {
			fields["pnl"] = trade.RealizedPnL
		}
		appLogger.Info(context.Background(), "Final trade state", fields)
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// scheduleCandidates scans each upcoming earnings event and enqueues a planned
// trade for the ones the screener recommends.
func scheduleCandidates(ctx context.Context, appLogger ports.Logger, cfg *config.Config, provider *csvdata.Provider, screen *screener.Screener, sched *scheduler.Scheduler, horizonDays int) {
	events, err := provider.GetUpcomingEvents(ctx, horizonDays)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load upcoming earnings events")
		log.Fatalf("FATAL: Failed to load upcoming earnings events: %v", err)
	}
	appLogger.Info(ctx, "Earnings calendar loaded", map[string]interface{}{
		"events": len(events), "horizonDays": horizonDays,
	})

	now := time.Now().In(cfg.MarketTimezone)
	for _, event := range events {
		sig, err := screen.Scan(ctx, event.Ticker, now)
		if err != nil {
			appLogger.Error(ctx, err, "Screening failed, skipping candidate", map[string]interface{}{"ticker": event.Ticker})
			continue
		}
		appLogger.Info(ctx, "Candidate screened", map[string]interface{}{
			"ticker":         event.Ticker,
			"recommendation": sig.Recommendation,
			"ivRvRatio":      sig.IVRVRatio,
			"termSlope":      sig.TermSlope,
		})
		if sig.Recommendation != domain.Recommended {
			continue
		}

		trade, err := scheduler.PlanTrade(event, sig, now, scheduler.PlanConfig{
			MarketTimezone:      cfg.MarketTimezone,
			OptionType:          cfg.OptionType,
			ShortExpiryLeadDays: cfg.ShortExpiryLeadDays,
			ExpiryGapDays:       cfg.ExpiryGapDays,
		})
		if err != nil {
			appLogger.Warn(ctx, "Candidate could not be planned", map[string]interface{}{
				"ticker": event.Ticker, "error": err.Error(),
			})
			continue
		}
		sched.Enqueue(ctx, trade)
	}
}
