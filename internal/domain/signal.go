package domain

import "time"

// ScreeningSignal is the outcome of screening one ticker ahead of its
// earnings announcement. Immutable once computed; owned by the caller that
// requested the scan.
type ScreeningSignal struct {
	Ticker   string
	AsOfDate time.Time

	// Supporting metrics
	UnderlyingPrice float64
	AvgVolume30d    float64
	RealizedVol30d  float64
	IV30            float64
	IVRVRatio       float64
	TermSlope       float64

	// Per-rule outcomes, each independently observable
	VolumePassed     bool
	IVRVRatioPassed  bool
	TermSlopePassed  bool
	MacroEventClear  bool
	MacroEventReason string

	Recommendation Recommendation
}

// CorePassed reports whether the three core rules (volume, IV/RV ratio,
// term-structure slope) all passed.
func (s *ScreeningSignal) CorePassed() bool {
	return s.VolumePassed && s.IVRVRatioPassed && s.TermSlopePassed
}
