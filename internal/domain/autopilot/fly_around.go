package autopilot

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// FlyAroundMode selects what a FlyAround circles toward
type FlyAroundMode int

const (
	// FlyAroundToTarget follows the sphere toward a set target position
	FlyAroundToTarget FlyAroundMode = iota

	// FlyAroundEscort holds the altitude along the current velocity
	FlyAroundEscort

	// FlyAroundOrbit circles until the thrusters go quiet
	FlyAroundOrbit
)

func (m FlyAroundMode) String() string {
	switch m {
	case FlyAroundToTarget:
		return "TO_TARGET"
	case FlyAroundEscort:
		return "ESCORT"
	case FlyAroundOrbit:
		return "ORBIT"
	}
	return "UNKNOWN"
}

const (
	// tangent legs start beyond this multiple of the requested altitude
	tangentApproachFactor = 1.1

	// fraction of the frame radius an orbit may reach
	orbitFrameLimit = 0.9

	// squared thruster level below which an orbit tick counts as settled
	orbitQuietThrust = 0.01

	// share of the weakest acceleration spent on centripetal margin
	orbitAccelShare = 0.8
)

// FlyAround keeps the vehicle on a sphere of fixed altitude around an
// obstructor while moving tangentially, either toward a target point, along
// its velocity, or in a closed orbit.
type FlyAround struct {
	base

	obstructor navigation.Body
	alt        float64
	vel        float64
	mode       FlyAroundMode
	targpos    r3.Vec

	settled    int
	impossible bool
}

// NewFlyAround creates a FlyAround at an absolute altitude. A zero speed
// picks one from the obstructor's gravity.
func NewFlyAround(v navigation.Vehicle, obstructor navigation.Body, alt, vel float64, mode FlyAroundMode, tuning *Tuning) (*FlyAround, error) {
	if err := validateFlyAround(v, obstructor, alt, mode); err != nil {
		return nil, err
	}
	return newFlyAround(v, obstructor, alt, vel, mode, tuning), nil
}

// NewFlyAroundRelative creates a FlyAround at a multiple of the
// obstructor's avoidance envelope
func NewFlyAroundRelative(v navigation.Vehicle, obstructor navigation.Body, relalt float64, mode FlyAroundMode, tuning *Tuning) (*FlyAround, error) {
	if v == nil || obstructor == nil {
		return nil, shared.NewInvalidCommandError(string(KindFlyAround), "vehicle and obstructor are required")
	}
	return NewFlyAround(v, obstructor, relalt*geometry.MaxEffectRadius(obstructor, v), 0, mode, tuning)
}

func validateFlyAround(v navigation.Vehicle, obstructor navigation.Body, alt float64, mode FlyAroundMode) error {
	if v == nil || obstructor == nil {
		return shared.NewInvalidCommandError(string(KindFlyAround), "vehicle and obstructor are required")
	}
	if alt <= 0 {
		return shared.NewInvalidCommandError(string(KindFlyAround), "altitude must be positive")
	}
	if mode < FlyAroundToTarget || mode > FlyAroundOrbit {
		return shared.NewInvalidCommandError(string(KindFlyAround), "unknown mode")
	}
	return nil
}

func newFlyAround(v navigation.Vehicle, obstructor navigation.Body, alt, vel float64, mode FlyAroundMode, tuning *Tuning) *FlyAround {
	f := &FlyAround{
		base:       newBase(KindFlyAround, v, tuning),
		obstructor: obstructor,
		alt:        alt,
		vel:        vel,
		mode:       mode,
	}

	minacc := v.AccelMin()
	if mode == FlyAroundOrbit {
		minacc = 0
	}
	mass := 0.0
	if _, terrain := obstructor.(navigation.TerrainBody); terrain {
		mass = obstructor.Mass()
	}
	if vel < 1e-30 {
		f.vel = math.Sqrt(alt*orbitAccelShare*minacc + mass*geometry.G/alt)
	}

	if alt > orbitFrameLimit*obstructor.Frame().NonRotating().Radius() {
		v.SwapAIMessage(navigation.AIMessageOrbitImpossible)
		f.impossible = true
	}
	return f
}

// SetTargetPosition sets the point, in the vehicle's frame, that ToTarget
// mode heads for
func (f *FlyAround) SetTargetPosition(pos r3.Vec) { f.targpos = pos }

func (f *FlyAround) Obstructor() navigation.Body { return f.obstructor }
func (f *FlyAround) Altitude() float64          { return f.alt }
func (f *FlyAround) Speed() float64             { return f.vel }
func (f *FlyAround) Mode() FlyAroundMode        { return f.mode }
func (f *FlyAround) TargetPosition() r3.Vec     { return f.targpos }

// maxVel limits the tangential speed by target proximity and by the
// distance covered per tick
func (f *FlyAround) maxVel(targdist, targalt, dt float64) float64 {
	if targalt > f.alt {
		return f.vel
	}
	v := f.vehicle
	t := math.Sqrt(2 * targdist / v.AccelFwd())
	vmaxprox := v.AccelMin() * t
	vmaxstep := math.Max(f.alt*0.05, f.alt-targalt) / dt
	return math.Min(f.vel, math.Min(vmaxprox, vmaxstep))
}

// Advance runs one tick around the obstructor
func (f *FlyAround) Advance(t *Tick) Status {
	v := f.vehicle
	if f.suspended() {
		return StatusContinue
	}
	if f.impossible {
		return StatusDone
	}
	if !f.processChild(t) {
		return StatusContinue
	}
	if !f.ensureFlying() {
		return StatusContinue
	}

	dt := t.Timestep
	targpos := f.targpos
	if f.mode != FlyAroundToTarget {
		targpos = r3.Scale(r3.Norm2(v.Position()), geometry.UnitSafe(v.Velocity()))
	}
	obspos := geometry.RelativePosition(f.obstructor, v)
	obsdist := r3.Norm(obspos)
	obsdir := geometry.UnitSafe(obspos)
	relpos := r3.Sub(targpos, v.Position())

	if geometry.CheckSuicide(v, r3.Scale(-1, obsdir)) {
		v.FaceDirection(v.Position(), 0)
		v.MatchVelocity(r3.Vec{})
		return StatusContinue
	}

	if obsdist > tangentApproachFactor*f.alt {
		obsframe := f.obstructor.Frame().NonRotating()
		tangent := geometry.Tangent(v, obsframe, targpos, f.alt)
		tposObs := geometry.PosInFrame(obsframe, v.Frame(), targpos)

		var speed float64
		switch {
		case f.mode != FlyAroundToTarget:
			speed = f.vel
		case r3.Norm2(relpos) < obsdist*obsdist+r3.Norm2(tposObs):
			speed = 0
		default:
			speed = f.maxVel(r3.Norm(r3.Sub(tposObs, tangent)), r3.Norm(tposObs), dt)
		}
		f.setChild(t, newFlyToFrame(v, obsframe, tangent, speed, true, f.tuning))
		f.processChild(t)
		return StatusContinue
	}

	vel := f.vel
	if f.mode == FlyAroundToTarget {
		vel = f.maxVel(r3.Norm(relpos), r3.Norm(targpos), dt)
	}

	fwddir := geometry.UnitSafe(r3.Cross(r3.Cross(obsdir, relpos), obsdir))
	tanvel := r3.Scale(vel, fwddir)

	if obsdist < geometry.MaxFeatureRadius(f.obstructor) {
		away := r3.Scale(-1, obsdir)
		if v.FaceDirection(away, 0) < climbOutAlignment {
			v.MatchVelocity(r3.Scale(climbOutSpeed, away))
		} else {
			v.MatchVelocity(r3.Vec{})
		}
		return StatusContinue
	}

	alt := r3.Norm(r3.Add(r3.Scale(dt, tanvel), obspos))
	ivel := geometry.InterceptSpeed(alt-f.alt, 0, v.AccelMin(), dt)

	v.MatchVelocity(r3.Add(tanvel, r3.Scale(ivel, obsdir)))
	v.FaceDirection(fwddir, 0)
	v.FaceUp(r3.Scale(-1, obsdir), 0)

	if f.mode != FlyAroundOrbit {
		return StatusContinue
	}
	if r3.Norm2(v.ThrusterLevels()) < orbitQuietThrust {
		f.settled++
	} else {
		f.settled = 0
	}
	if f.settled >= f.tuning.OrbitSettleTicks {
		v.SetThrusterLevels(r3.Vec{})
		return StatusDone
	}
	return StatusContinue
}
