package ledger

import (
	"fmt"
	"math"
	"sync"

	"earningsSpreadBot/internal/domain"
)

// CapitalLedger tracks available capital for the run. Sizing reads the
// current capital; capital itself changes only when a trade's P&L is realized
// at exit. There is no floor: realized losses beyond the balance drive it
// negative, matching the source behavior.
type CapitalLedger struct {
	mu      sync.Mutex
	capital float64
}

// New creates a ledger with the given starting capital.
func New(initialCapital float64) (*CapitalLedger, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %.2f", initialCapital)
	}
	return &CapitalLedger{capital: initialCapital}, nil
}

// Capital returns the current capital.
func (l *CapitalLedger) Capital() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capital
}

// Realize applies a realized P&L and returns the new capital.
func (l *CapitalLedger) Realize(pnl float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.capital += pnl
	return l.capital
}

// SizePosition computes the number of spread contracts to trade from the
// current capital, the risk-allocation fraction and the per-unit spread
// price. Returns 0 when the price is non-positive; never returns negative.
func (l *CapitalLedger) SizePosition(riskAllocationPct, pricePerUnit float64) int {
	return SizeContracts(l.Capital(), riskAllocationPct, pricePerUnit)
}

// SizeContracts is the pure sizing rule:
// floor(capital × riskPct / (pricePerUnit × multiplier)).
func SizeContracts(capital, riskAllocationPct, pricePerUnit float64) int {
	if pricePerUnit <= 0 {
		return 0
	}
	costPerSpread := pricePerUnit * domain.ContractMultiplier
	riskAmount := capital * riskAllocationPct
	n := int(math.Floor(riskAmount / costPerSpread))
	if n < 0 {
		return 0
	}
	return n
}
