package autopilot

import "math"

// TransitRange is one row of the transit drive safety table: within
// MinRange of a body the drive may run no faster than MaxSpeed
type TransitRange struct {
	MinRange float64
	MaxSpeed float64
}

// Tuning holds the distances and speeds the commands steer by.
// The zero value is not usable; start from DefaultTuning.
type Tuning struct {
	// FlyTo standoff from non-terrain bodies, and multiple of the avoidance
	// envelope used for terrain bodies
	VicinityMin float64
	VicinityMul float64

	// Distances beyond which FlyTo braking uses the main thruster from the start
	LongHaulDistance float64

	// Overshoot damping: within each band, when faster than OvershootSpeed,
	// the usable deceleration is scaled down
	OvershootFarBand  float64
	OvershootNearBand float64
	OvershootSpeed    float64

	// Dock delegates to FlyTo beyond this range from the station
	DockApproachRange float64

	// Formation intercepts with FlyTo beyond this separation
	FormationRange float64

	// FlyAround orbit mode finishes after this many consecutive settled ticks
	OrbitSettleTicks int

	// Transit drive
	NoTransitRange          float64
	TransitRanges           []TransitRange
	TransitBand             float64
	TransitArcBand          float64
	AltitudeCorrectionSpeed float64
	TransitEngageSpeed      float64
	TransitReadyMargin      float64
	TransitSpeedCeiling     float64
	TransitExitSpeed        float64
	TransitExitThreshold    float64
	TransitSlowdownRange    float64
	TransitHeatLimit        float64
}

// DefaultTuning returns the stock values
func DefaultTuning() *Tuning {
	return &Tuning{
		VicinityMin:       15000,
		VicinityMul:       4,
		LongHaulDistance:  1e7,
		OvershootFarBand:  50000,
		OvershootNearBand: 10000,
		OvershootSpeed:    1000,
		DockApproachRange: 16000,
		FormationRange:    30000,
		OrbitSettleTicks:  2,

		NoTransitRange: 500000,
		TransitRanges: []TransitRange{
			{MinRange: 1000000, MaxSpeed: 2997924580},
			{MinRange: 15000, MaxSpeed: 299000},
		},
		TransitBand:             6000,
		TransitArcBand:          25000,
		AltitudeCorrectionSpeed: 10000,
		TransitEngageSpeed:      50000,
		TransitReadyMargin:      5000,
		TransitSpeedCeiling:     2987924580,
		TransitExitSpeed:        10000,
		TransitExitThreshold:    700,
		TransitSlowdownRange:    1000000,
		TransitHeatLimit:        0.1,
	}
}

// MinTransitRange returns the smallest range and the smallest speed in the
// transit table
func (t *Tuning) MinTransitRange() (minRange, minSpeed float64) {
	minRange, minSpeed = math.Inf(1), math.Inf(1)
	for _, r := range t.TransitRanges {
		minRange = math.Min(minRange, r.MinRange)
		minSpeed = math.Min(minSpeed, r.MaxSpeed)
	}
	if math.IsInf(minRange, 1) {
		return 0, 0
	}
	return minRange, minSpeed
}

// TransitReadySpeed is the speed at which the drive is armed
func (t *Tuning) TransitReadySpeed() float64 {
	return math.Max(0, t.TransitEngageSpeed-t.TransitReadyMargin)
}
