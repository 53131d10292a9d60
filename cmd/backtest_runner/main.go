package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"earningsSpreadBot/config"
	"earningsSpreadBot/internal/adapters/csvdata"
	"earningsSpreadBot/internal/adapters/logger"
	"earningsSpreadBot/internal/backtesting"
	"earningsSpreadBot/internal/screener"
)

func main() {
	dataDir := flag.String("data", "data", "Directory holding price, volatility and calendar CSV files")
	startArg := flag.String("start", "", "Backtest start date (YYYY-MM-DD)")
	endArg := flag.String("end", "", "Backtest end date (YYYY-MM-DD)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Console: true})

	start, end, err := parseRange(*startArg, *endArg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// 2. Initialize data providers. The paced wrapper applies the provider's
	// rate limit to every historical lookup, including the screener's.
	provider, err := csvdata.New(csvdata.Config{Dir: *dataDir, Logger: appLogger})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize data provider")
		log.Fatalf("FATAL: Failed to initialize data provider: %v", err)
	}
	marketData := backtesting.NewPacedMarketData(provider, cfg.ProviderPacing)

	// 3. Initialize the screener on the paced provider
	screen, err := screener.New(screener.Config{
		AvgVolumeThreshold: cfg.AvgVolumeThreshold,
		IVRVRatioThreshold: cfg.IVRVRatioThreshold,
		TermSlopeThreshold: cfg.TermSlopeThreshold,
		MacroEventDaysAway: cfg.MacroEventDaysAway,
	}, appLogger, marketData, nil)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize screener")
		log.Fatalf("FATAL: Failed to initialize screener: %v", err)
	}

	// 4. Initialize the backtest engine
	engine, err := backtesting.New(backtesting.Config{
		InitialCapital:        cfg.InitialCapital,
		RiskAllocationPercent: cfg.RiskAllocationPercent,
		OptionType:            cfg.OptionType,
		ShortExpiryLeadDays:   cfg.ShortExpiryLeadDays,
		ExpiryGapDays:         cfg.ExpiryGapDays,
		MarketTimezone:        cfg.MarketTimezone,
		ProviderPacing:        cfg.ProviderPacing,
	}, appLogger, marketData, provider, screen)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize backtest engine")
		log.Fatalf("FATAL: Failed to initialize backtest engine: %v", err)
	}

	// 5. Run
	appLogger.Info(context.Background(), "Backtest starting", map[string]interface{}{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	})
	result, err := engine.Run(context.Background(), start, end)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Backtest failed")
		log.Fatalf("FATAL: Backtest failed: %v", err)
	}

	printSummary(result)
}

// parseRange validates the date arguments; the default window is the
// trailing year.
func parseRange(startArg, endArg string) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	var err error
	if startArg != "" {
		if start, err = time.Parse("2006-01-02", startArg); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -start date %q: %w", startArg, err)
		}
	}
	if endArg != "" {
		if end, err = time.Parse("2006-01-02", endArg); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -end date %q: %w", endArg, err)
		}
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s must precede end date %s", startArg, endArg)
	}
	return start, end, nil
}

func printSummary(result *backtesting.Result) {
	m := result.Metrics
	totalReturn := 0.0
	if result.InitialCapital > 0 {
		totalReturn = (m.FinalCapital - result.InitialCapital) / result.InitialCapital * 100
	}

	drawdownDuration := fmt.Sprintf("%d days", m.MaxDrawdownDays)
	if !m.Recovered {
		drawdownDuration = "N/A (did not recover)"
	}

	fmt.Println("\n===== Backtest Summary =====")
	fmt.Printf("Starting Capital:   %.2f\n", result.InitialCapital)
	fmt.Printf("Ending Capital:     %.2f\n", m.FinalCapital)
	fmt.Printf("Total Return:       %.2f%%\n", totalReturn)
	fmt.Printf("Total Trades:       %d\n", m.TotalTrades)
	fmt.Printf("Winning Trades:     %d\n", m.WinningTrades)
	fmt.Printf("Win Rate:           %.2f%%\n", m.WinRate*100)
	fmt.Printf("Average P&L:        %.2f\n", m.AveragePnL)
	fmt.Printf("Sharpe Ratio:       %.2f\n", m.SharpeRatio)
	fmt.Printf("Max Drawdown:       %.2f%%\n", m.MaxDrawdownPct*100)
	fmt.Printf("Drawdown Duration:  %s\n", drawdownDuration)

	for _, trade := range result.Trades {
		pnl := "unpriced"
		if trade.RealizedPnLKnown {
			pnl = fmt.Sprintf("%.2f", trade.RealizedPnL)
		}
		fmt.Printf("  %s  %-6s  entry=%s  status=%s  pnl=%s\n",
			trade.EvaluationDate.Format("2006-01-02"), trade.Ticker,
			trade.EntryTime.Format("2006-01-02 15:04"), trade.Status, pnl)
	}
}
