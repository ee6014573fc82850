package config

import (
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
)

// AutopilotConfig holds the distances and speeds the autopilot commands
// steer by. Zero values fall back to the stock tuning.
type AutopilotConfig struct {
	VicinityMin       float64 `mapstructure:"vicinity_min" validate:"gte=0"`
	VicinityMul       float64 `mapstructure:"vicinity_mul" validate:"gte=0"`
	LongHaulDistance  float64 `mapstructure:"long_haul_distance" validate:"gte=0"`
	OvershootFarBand  float64 `mapstructure:"overshoot_far_band" validate:"gte=0"`
	OvershootNearBand float64 `mapstructure:"overshoot_near_band" validate:"gte=0"`
	OvershootSpeed    float64 `mapstructure:"overshoot_speed" validate:"gte=0"`
	DockApproachRange float64 `mapstructure:"dock_approach_range" validate:"gte=0"`
	FormationRange    float64 `mapstructure:"formation_range" validate:"gte=0"`
	OrbitSettleTicks  int     `mapstructure:"orbit_settle_ticks" validate:"gte=0"`

	Transit TransitConfig `mapstructure:"transit"`
}

// TransitConfig holds the transit drive limits
type TransitConfig struct {
	NoTransitRange          float64              `mapstructure:"no_transit_range" validate:"gte=0"`
	Ranges                  []TransitRangeConfig `mapstructure:"ranges" validate:"dive"`
	Band                    float64              `mapstructure:"band" validate:"gte=0"`
	ArcBand                 float64              `mapstructure:"arc_band" validate:"gte=0"`
	AltitudeCorrectionSpeed float64              `mapstructure:"altitude_correction_speed" validate:"gte=0"`
	EngageSpeed             float64              `mapstructure:"engage_speed" validate:"gte=0"`
	ReadyMargin             float64              `mapstructure:"ready_margin" validate:"gte=0"`
	SpeedCeiling            float64              `mapstructure:"speed_ceiling" validate:"gte=0"`
	ExitSpeed               float64              `mapstructure:"exit_speed" validate:"gte=0"`
	ExitThreshold           float64              `mapstructure:"exit_threshold" validate:"gte=0"`
	SlowdownRange           float64              `mapstructure:"slowdown_range" validate:"gte=0"`
	HeatLimit               float64              `mapstructure:"heat_limit" validate:"gte=0,lte=1"`
}

// TransitRangeConfig is one row of the transit safety table
type TransitRangeConfig struct {
	MinRange float64 `mapstructure:"min_range" validate:"gt=0"`
	MaxSpeed float64 `mapstructure:"max_speed" validate:"gt=0"`
}

// Tuning builds the domain tuning, taking stock values for unset fields
func (c AutopilotConfig) Tuning() *domainAutopilot.Tuning {
	t := domainAutopilot.DefaultTuning()

	setFloat := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	setFloat(&t.VicinityMin, c.VicinityMin)
	setFloat(&t.VicinityMul, c.VicinityMul)
	setFloat(&t.LongHaulDistance, c.LongHaulDistance)
	setFloat(&t.OvershootFarBand, c.OvershootFarBand)
	setFloat(&t.OvershootNearBand, c.OvershootNearBand)
	setFloat(&t.OvershootSpeed, c.OvershootSpeed)
	setFloat(&t.DockApproachRange, c.DockApproachRange)
	setFloat(&t.FormationRange, c.FormationRange)
	if c.OrbitSettleTicks > 0 {
		t.OrbitSettleTicks = c.OrbitSettleTicks
	}

	tc := c.Transit
	setFloat(&t.NoTransitRange, tc.NoTransitRange)
	setFloat(&t.TransitBand, tc.Band)
	setFloat(&t.TransitArcBand, tc.ArcBand)
	setFloat(&t.AltitudeCorrectionSpeed, tc.AltitudeCorrectionSpeed)
	setFloat(&t.TransitEngageSpeed, tc.EngageSpeed)
	setFloat(&t.TransitReadyMargin, tc.ReadyMargin)
	setFloat(&t.TransitSpeedCeiling, tc.SpeedCeiling)
	setFloat(&t.TransitExitSpeed, tc.ExitSpeed)
	setFloat(&t.TransitExitThreshold, tc.ExitThreshold)
	setFloat(&t.TransitSlowdownRange, tc.SlowdownRange)
	setFloat(&t.TransitHeatLimit, tc.HeatLimit)
	if len(tc.Ranges) > 0 {
		t.TransitRanges = make([]domainAutopilot.TransitRange, len(tc.Ranges))
		for i, r := range tc.Ranges {
			t.TransitRanges[i] = domainAutopilot.TransitRange{MinRange: r.MinRange, MaxSpeed: r.MaxSpeed}
		}
	}
	return t
}
