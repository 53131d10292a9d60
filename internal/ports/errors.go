package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Screening Errors
	ErrInsufficientData = errors.New("not enough price bars or volatility samples")

	// Pricing / Sizing Errors
	ErrPriceUnavailable = errors.New("quote or historical price unavailable")
	ErrSizingInfeasible = errors.New("computed position size is zero")

	// Gateway Errors
	ErrGatewayUnavailable   = errors.New("execution gateway is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the execution gateway")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("gateway authentication failed (check credentials)")
	ErrOrderNotFound        = errors.New("order not found on the gateway")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrOrderCancelFailed    = errors.New("failed to cancel order")
)
