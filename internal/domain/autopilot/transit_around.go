package autopilot

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// TransitPhase is the progress of a TransitAround
type TransitPhase string

const (
	TransitPhaseReady    TransitPhase = "READY"
	TransitPhaseAltitude TransitPhase = "ALTITUDE"
	TransitPhaseTransit  TransitPhase = "TRANSIT"
)

// band scaling against the obstructor radius, and the arc-following nudges
const (
	transitLowRadiusShare  = 0.0019
	transitHighRadiusShare = 0.0059
	transitArcNudgeFar     = 0.005
	transitArcNudgeNear    = 0.001
	transitHeatSpeedShare  = 0.01
	transitCurveDistance   = 10000.0
)

// TransitAround skims a body at transit-drive altitude toward a target
// position on the far side, for vehicles fitted with the drive.
type TransitAround struct {
	base

	obstructor navigation.Body
	targpos    r3.Vec
	alt        float64
	phase      TransitPhase
}

func NewTransitAround(v navigation.Vehicle, obstructor navigation.Body, tuning *Tuning) (*TransitAround, error) {
	if v == nil || obstructor == nil {
		return nil, shared.NewInvalidCommandError(string(KindTransitAround), "vehicle and obstructor are required")
	}
	if _, ok := v.(navigation.TransitCapable); !ok {
		return nil, shared.NewInvalidCommandError(string(KindTransitAround), "vehicle has no transit drive")
	}
	return newTransitAround(v, obstructor, tuning), nil
}

func newTransitAround(v navigation.Vehicle, obstructor navigation.Body, tuning *Tuning) *TransitAround {
	return &TransitAround{
		base:       newBase(KindTransitAround, v, tuning),
		obstructor: obstructor,
		phase:      TransitPhaseReady,
	}
}

// SetTargetPosition sets the destination in the vehicle's frame
func (c *TransitAround) SetTargetPosition(pos r3.Vec) { c.targpos = pos }

func (c *TransitAround) Obstructor() navigation.Body { return c.obstructor }
func (c *TransitAround) TargetPosition() r3.Vec      { return c.targpos }
func (c *TransitAround) Phase() TransitPhase         { return c.phase }
func (c *TransitAround) Altitude() float64           { return c.alt }

// band returns the low and high transit altitudes above the obstructor
func (c *TransitAround) band() (low, high float64) {
	minRange, _ := c.tuning.MinTransitRange()
	radius := c.obstructor.PhysRadius()
	low = math.Max(minRange+radius*transitLowRadiusShare, minRange)
	high = math.Max(minRange+radius*transitHighRadiusShare, minRange+c.tuning.TransitArcBand)
	return low, high
}

// Discard shuts the drive down and drops to exit speed
func (c *TransitAround) Discard() {
	c.base.Discard()

	tc, ok := c.vehicle.(navigation.TransitCapable)
	if !ok || tc.TransitDriveState() == navigation.TransitDriveOff {
		return
	}
	tc.SetTransitDriveState(navigation.TransitDriveOff)
	if r3.Norm(c.vehicle.Velocity()) > c.tuning.TransitExitThreshold {
		c.vehicle.SetVelocity(r3.Scale(c.tuning.TransitExitSpeed, r3.Unit(c.vehicle.Velocity())))
	}
}

func (c *TransitAround) Advance(t *Tick) Status {
	v := c.vehicle
	tc, ok := v.(navigation.TransitCapable)
	if !ok {
		return StatusDone
	}
	if c.suspended() {
		return StatusContinue
	}
	if !c.processChild(t) {
		return StatusContinue
	}

	_, minSpeed := c.tuning.MinTransitRange()
	low, high := c.band()
	altitude := low + (high-low)/2

	toObstructor := geometry.RelativePosition(c.obstructor, v)
	toTarget := r3.Sub(c.targpos, v.Position())
	up := geometry.UnitSafe(r3.Scale(-1, toObstructor))
	right := geometry.UnitSafe(r3.Cross(toObstructor, toTarget))
	heading := geometry.UnitSafe(r3.Cross(up, right))

	targdist := r3.Norm(toTarget)
	if targdist <= c.tuning.NoTransitRange {
		return StatusDone
	}

	bandTop := altitude + c.tuning.TransitBand
	bandBottom := altitude - c.tuning.TransitBand
	if _, terrain := c.obstructor.(navigation.TerrainBody); terrain && c.phase != TransitPhaseTransit {
		c.alt = r3.Norm(toObstructor) - c.obstructor.PhysRadius()
		if c.alt < bandBottom || c.alt > bandTop {
			c.phase = TransitPhaseAltitude
			curve := math.Min(1, math.Abs(c.alt-altitude)/transitCurveDistance)
			dir := up
			if c.alt > bandTop {
				dir = r3.Scale(-1, up)
			}
			v.MatchVelocity(r3.Scale(c.tuning.AltitudeCorrectionSpeed*curve, dir))
			v.FaceDirection(dir, 0)
			v.FaceUp(up, 0)
			return StatusContinue
		}
	}

	// bend the heading to follow the arc at transit altitude
	switch {
	case c.alt > bandTop:
		heading = r3.Add(heading, r3.Scale(-transitArcNudgeFar, up))
	case c.alt > altitude:
		heading = r3.Add(heading, r3.Scale(-transitArcNudgeNear, up))
	case c.alt < bandBottom:
		heading = r3.Add(heading, r3.Scale(transitArcNudgeFar, up))
	case c.alt < altitude:
		heading = r3.Add(heading, r3.Scale(transitArcNudgeNear, up))
	}

	if c.phase == TransitPhaseAltitude {
		v.SetVelocity(r3.Scale(r3.Norm(v.Velocity()), heading))
	}
	c.phase = TransitPhaseTransit

	if tc.TransitDriveState() == navigation.TransitDriveOff {
		tc.EngageTransitDrive()
	}

	factor := 1.0
	if targdist < c.tuning.TransitSlowdownRange {
		factor = targdist / c.tuning.TransitSlowdownRange
	}
	if tc.HullTemperature() > c.tuning.TransitHeatLimit {
		factor = transitHeatSpeedShare
	}
	v.MatchVelocity(r3.Scale(minSpeed*factor, heading))
	v.FaceDirection(heading, 0)
	v.FaceUp(up, 0)
	return StatusContinue
}
