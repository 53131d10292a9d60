package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"earningsSpreadBot/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Gateway connection
	GatewayHost     string
	GatewayPort     int
	GatewayClientID int

	// Data provider credentials
	MarketDataAPIKey string
	MacroAPIKey      string // Optional; macro veto is skipped permissively when unset

	// Screening thresholds
	AvgVolumeThreshold float64 // Minimum 30-day average share volume
	IVRVRatioThreshold float64 // Minimum IV30 / RV30 ratio
	TermSlopeThreshold float64 // Maximum term-structure slope (negative preferred)
	MacroEventDaysAway int     // Veto window for macro events, in days

	// Trade definition
	OptionType          domain.OptionRight
	ShortExpiryLeadDays int // Calendar days from entry to the short leg expiry
	ExpiryGapDays       int // Calendar days between short and long leg expiries

	// Risk management & position sizing
	RiskAllocationPercent float64 // Fraction of capital allocated per trade
	StopLossPercent       float64 // Stop trigger distance from the entry fill, as a fraction

	// Order execution
	EntryOrderType domain.OrderType

	// Timing
	MarketTimezone    *time.Location
	SchedulerInterval time.Duration // Live polling cadence
	QuoteTimeout      time.Duration // Bound on blocking spread-quote requests
	ProviderPacing    time.Duration // Fixed delay between historical data-provider calls

	// Backtest
	InitialCapital float64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables (.env file).
func Load() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Gateway connection
	cfg.GatewayHost = getEnv("GATEWAY_HOST", "127.0.0.1")
	cfg.GatewayPort = getEnvAsInt("GATEWAY_PORT", 7497)
	cfg.GatewayClientID = getEnvAsInt("GATEWAY_CLIENT_ID", 1)
	if cfg.GatewayPort <= 0 {
		errs = append(errs, "GATEWAY_PORT must be positive")
	}

	// Data provider credentials
	cfg.MarketDataAPIKey = getEnv("MARKET_DATA_API_KEY", "")
	if cfg.MarketDataAPIKey == "" {
		errs = append(errs, "MARKET_DATA_API_KEY must be set")
	}
	cfg.MacroAPIKey = getEnv("MACRO_API_KEY", "")

	// Screening thresholds
	cfg.AvgVolumeThreshold, err = getEnvAsFloatRequired("AVG_VOLUME_THRESHOLD", 1500000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid AVG_VOLUME_THRESHOLD: %v", err))
	} else if cfg.AvgVolumeThreshold <= 0 {
		errs = append(errs, "AVG_VOLUME_THRESHOLD must be positive")
	}

	cfg.IVRVRatioThreshold, err = getEnvAsFloatRequired("IV_RV_RATIO_THRESHOLD", 1.25)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid IV_RV_RATIO_THRESHOLD: %v", err))
	} else if cfg.IVRVRatioThreshold <= 0 {
		errs = append(errs, "IV_RV_RATIO_THRESHOLD must be positive")
	}

	cfg.TermSlopeThreshold, err = getEnvAsFloatRequired("TERM_STRUCTURE_SLOPE_THRESHOLD", -0.00406)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TERM_STRUCTURE_SLOPE_THRESHOLD: %v", err))
	}

	cfg.MacroEventDaysAway = getEnvAsInt("MACRO_EVENT_DAYS_AWAY", 1)
	if cfg.MacroEventDaysAway < 0 {
		errs = append(errs, "MACRO_EVENT_DAYS_AWAY cannot be negative")
	}

	// Trade definition
	optionType := strings.ToUpper(getEnv("OPTION_TYPE", "CALL"))
	switch optionType {
	case string(domain.Call), string(domain.Put):
		cfg.OptionType = domain.OptionRight(optionType)
	default:
		errs = append(errs, fmt.Sprintf("OPTION_TYPE must be CALL or PUT, got %q", optionType))
	}

	cfg.ShortExpiryLeadDays, err = getEnvAsIntRequired("SHORT_EXPIRY_LEAD_DAYS", 20)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SHORT_EXPIRY_LEAD_DAYS: %v", err))
	} else if cfg.ShortExpiryLeadDays <= 0 {
		errs = append(errs, "SHORT_EXPIRY_LEAD_DAYS must be positive")
	}

	cfg.ExpiryGapDays, err = getEnvAsIntRequired("EXPIRY_GAP_DAYS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXPIRY_GAP_DAYS: %v", err))
	} else if cfg.ExpiryGapDays <= 0 {
		errs = append(errs, "EXPIRY_GAP_DAYS must be positive")
	}

	// Risk management & position sizing
	cfg.RiskAllocationPercent, err = getEnvAsFloatRequired("RISK_ALLOCATION_PERCENT", 0.15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_ALLOCATION_PERCENT: %v", err))
	} else if cfg.RiskAllocationPercent <= 0 || cfg.RiskAllocationPercent > 1.0 {
		errs = append(errs, "RISK_ALLOCATION_PERCENT must be between 0.0 and 1.0")
	}

	cfg.StopLossPercent, err = getEnvAsFloatRequired("STOP_LOSS_PERCENTAGE", 0.40)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS_PERCENTAGE: %v", err))
	} else if cfg.StopLossPercent <= 0 {
		errs = append(errs, "STOP_LOSS_PERCENTAGE must be positive")
	}

	// Order execution
	orderType := strings.ToUpper(getEnv("ORDER_TYPE", "LMT"))
	switch orderType {
	case string(domain.OrderTypeLimit), string(domain.OrderTypeMarket):
		cfg.EntryOrderType = domain.OrderType(orderType)
	default:
		errs = append(errs, fmt.Sprintf("ORDER_TYPE must be LMT or MKT, got %q", orderType))
	}

	// Timing
	tzName := getEnv("MARKET_TIMEZONE", "America/New_York")
	cfg.MarketTimezone, err = time.LoadLocation(tzName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_TIMEZONE %q: %v", tzName, err))
	}

	schedulerIntervalSeconds := getEnvAsInt("SCHEDULER_INTERVAL_SECONDS", 30)
	if schedulerIntervalSeconds <= 0 {
		errs = append(errs, "SCHEDULER_INTERVAL_SECONDS must be positive")
	}
	cfg.SchedulerInterval = time.Duration(schedulerIntervalSeconds) * time.Second

	quoteTimeoutSeconds := getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 10)
	if quoteTimeoutSeconds <= 0 {
		errs = append(errs, "QUOTE_TIMEOUT_SECONDS must be positive")
	}
	cfg.QuoteTimeout = time.Duration(quoteTimeoutSeconds) * time.Second

	providerPacingSeconds := getEnvAsInt("PROVIDER_PACING_SECONDS", 4)
	if providerPacingSeconds < 0 {
		errs = append(errs, "PROVIDER_PACING_SECONDS cannot be negative")
	}
	cfg.ProviderPacing = time.Duration(providerPacingSeconds) * time.Second

	// Backtest
	cfg.InitialCapital, err = getEnvAsFloatRequired("INITIAL_CAPITAL", 100000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_CAPITAL: %v", err))
	} else if cfg.InitialCapital <= 0 {
		errs = append(errs, "INITIAL_CAPITAL must be positive")
	}

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
