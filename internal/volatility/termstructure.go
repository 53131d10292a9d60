package volatility

import (
	"fmt"
	"sort"

	"earningsSpreadBot/internal/domain"
)

// DefaultFarDTE is the far anchor, in days, for the term-structure slope.
const DefaultFarDTE = 45

// TermStructure models implied volatility as a function of days to expiry.
// Interior queries interpolate linearly between the two bracketing samples;
// queries outside the observed range extrapolate along the nearest segment.
type TermStructure struct {
	days []float64
	ivs  []float64
}

// NewTermStructure builds a term structure from volatility samples. Samples
// are sorted ascending by days to expiry; the first sample for a given day
// wins when duplicates exist. At least one sample is required.
func NewTermStructure(samples []*domain.VolatilitySample) (*TermStructure, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("at least one volatility sample is required")
	}

	sorted := make([]*domain.VolatilitySample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DaysToExpiry < sorted[j].DaysToExpiry
	})

	ts := &TermStructure{}
	for _, s := range sorted {
		if n := len(ts.days); n > 0 && ts.days[n-1] == float64(s.DaysToExpiry) {
			continue
		}
		ts.days = append(ts.days, float64(s.DaysToExpiry))
		ts.ivs = append(ts.ivs, s.ImpliedVol)
	}
	return ts, nil
}

// Len returns the number of distinct expiry days in the structure.
func (t *TermStructure) Len() int { return len(t.days) }

// MinDays returns the smallest observed days-to-expiry.
func (t *TermStructure) MinDays() float64 { return t.days[0] }

// At returns the implied volatility at an arbitrary day offset.
func (t *TermStructure) At(dte float64) float64 {
	n := len(t.days)
	if n == 1 {
		return t.ivs[0]
	}

	// Pick the segment to interpolate on; queries beyond either end reuse the
	// boundary segment's slope.
	i := sort.SearchFloat64s(t.days, dte)
	switch {
	case i <= 0:
		i = 1
	case i >= n:
		i = n - 1
	}

	x0, x1 := t.days[i-1], t.days[i]
	y0, y1 := t.ivs[i-1], t.ivs[i]
	return y0 + (dte-x0)*(y1-y0)/(x1-x0)
}

// Slope returns the per-day change in implied volatility between two day
// offsets. Defined as 0 when the offsets coincide.
func (t *TermStructure) Slope(nearDTE, farDTE float64) float64 {
	if farDTE == nearDTE {
		return 0
	}
	return (t.At(farDTE) - t.At(nearDTE)) / (farDTE - nearDTE)
}
