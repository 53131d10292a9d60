package domain

// VolatilitySample is one at-the-money implied volatility observation for a
// (ticker, expiration) pair on a given evaluation date.
type VolatilitySample struct {
	DaysToExpiry int     // Calendar days until the expiration, >= 0
	ImpliedVol   float64 // Annualized implied volatility, > 0
}
