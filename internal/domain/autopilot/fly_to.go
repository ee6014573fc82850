package autopilot

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// FlyTo phases. Negative values record why the previous tick skipped the
// closing profile.
const (
	flyToInitial     = -6
	flyToOverSpeed   = -5
	flyToCoasting    = 0
	flyToBraking     = 1
	flyToFinalAdjust = 3
)

// FlyToArrived is the phase a stopping FlyTo enters once it is inside its
// arrival threshold; it reports Done on the following advance.
const FlyToArrived = flyToFinalAdjust

const (
	// heading rotation past which a pass-through FlyTo counts as arrived (~25°)
	passThroughCos = 0.9

	// radial escape speed when below the terrain feature radius
	climbOutSpeed = 1000.0

	// facing tolerance before the climb-out burn starts
	climbOutAlignment = 0.05

	// obstacle detours fly at this multiple of the avoidance envelope
	detourMargin = 1.05

	// the reversed heading is held while the speed error is under this many
	// ticks of deceleration
	flipWindowTicks = 60
)

// FlyTo steers the vehicle to a body or to a fixed offset in a frame,
// arriving at a terminal speed, without entering any obstructor's envelope.
//
// Exactly one of target or targetFrame is set. A FlyTo built by FlyAround
// toward a tangent point carries the tangent flag and gives up control as
// soon as its geometry goes stale.
type FlyTo struct {
	base

	target      navigation.Body
	targetFrame navigation.Frame
	offset      r3.Vec
	standoff    float64
	endvel      float64
	tangent     bool

	state  int
	reldir r3.Vec
	frame  navigation.Frame
}

// FlyToOption customises a body-targeted FlyTo
type FlyToOption func(*FlyTo)

// WithStandoff overrides the distance kept from the target body's centre
func WithStandoff(distance float64) FlyToOption {
	return func(f *FlyTo) {
		f.standoff = distance
	}
}

// NewFlyToBody creates a FlyTo tracking a body. Ground stations are
// approached at a fixed point above the pad instead of their centre.
func NewFlyToBody(v navigation.Vehicle, target navigation.Body, tuning *Tuning, opts ...FlyToOption) (*FlyTo, error) {
	if v == nil {
		return nil, shared.NewInvalidCommandError(string(KindFlyTo), "vehicle is required")
	}
	if target == nil {
		return nil, shared.NewInvalidCommandError(string(KindFlyTo), "target body is required")
	}
	return newFlyToBody(v, target, tuning, opts...), nil
}

func newFlyToBody(v navigation.Vehicle, target navigation.Body, tuning *Tuning, opts ...FlyToOption) *FlyTo {
	f := &FlyTo{
		base:  newBase(KindFlyTo, v, tuning),
		state: flyToInitial,
	}

	if _, terrain := target.(navigation.TerrainBody); terrain {
		f.standoff = f.tuning.VicinityMul * geometry.MaxEffectRadius(target, v)
	} else {
		f.standoff = f.tuning.VicinityMin
	}
	for _, opt := range opts {
		opt(f)
	}

	if station, ok := target.(navigation.Station); ok && station.IsGroundStation() {
		f.offset = r3.Add(station.Position(), r3.Scale(f.tuning.VicinityMin, station.Orient().Up()))
		f.targetFrame = station.Frame()
		if r3.Norm(geometry.RelativePosition(v, station)) <= f.tuning.VicinityMin {
			f.targetFrame = nil
		}
		return f
	}

	f.target = target
	return f
}

// NewFlyToFrame creates a FlyTo toward a point fixed in a frame
func NewFlyToFrame(v navigation.Vehicle, frame navigation.Frame, offset r3.Vec, endvel float64, tuning *Tuning) (*FlyTo, error) {
	if v == nil {
		return nil, shared.NewInvalidCommandError(string(KindFlyTo), "vehicle is required")
	}
	if frame == nil {
		return nil, shared.NewInvalidCommandError(string(KindFlyTo), "target frame is required")
	}
	if endvel < 0 {
		return nil, shared.NewInvalidCommandError(string(KindFlyTo), "terminal speed cannot be negative")
	}
	return newFlyToFrame(v, frame, offset, endvel, false, tuning), nil
}

func newFlyToFrame(v navigation.Vehicle, frame navigation.Frame, offset r3.Vec, endvel float64, tangent bool, tuning *Tuning) *FlyTo {
	return &FlyTo{
		base:        newBase(KindFlyTo, v, tuning),
		targetFrame: frame,
		offset:      offset,
		endvel:      endvel,
		tangent:     tangent,
		state:       flyToInitial,
	}
}

// Target returns the tracked body, or nil for frame targets
func (f *FlyTo) Target() navigation.Body { return f.target }

// TargetFrame returns the frame of a frame target, or nil
func (f *FlyTo) TargetFrame() navigation.Frame { return f.targetFrame }

// Offset is the aim point within the target frame
func (f *FlyTo) Offset() r3.Vec { return f.offset }

// TerminalSpeed is the speed to hold on arrival
func (f *FlyTo) TerminalSpeed() float64 { return f.endvel }

// IsTangent reports whether the command is a FlyAround tangent leg
func (f *FlyTo) IsTangent() bool { return f.tangent }

// State returns the current phase
func (f *FlyTo) State() int { return f.state }

// Discard turns a running transit drive off and caps the speed
func (f *FlyTo) Discard() {
	f.base.Discard()

	tc, ok := f.vehicle.(navigation.TransitCapable)
	if !ok || tc.TransitDriveState() == navigation.TransitDriveOff {
		return
	}
	capSpeed(f.vehicle, f.tuning.TransitEngageSpeed)
	tc.SetTransitDriveState(navigation.TransitDriveOff)
}

// Advance runs one tick of the approach
func (f *FlyTo) Advance(t *Tick) Status {
	v := f.vehicle
	if f.suspended() {
		return StatusContinue
	}
	if f.driveTransit(t) {
		return StatusContinue
	}
	if f.target == nil && f.targetFrame == nil {
		return StatusDone
	}
	if f.target != nil && f.target.IsDead() {
		return StatusDone
	}
	if !f.ensureFlying() {
		return StatusContinue
	}

	dt := t.Timestep
	targpos, targvel := f.aimPoint()
	targframe := f.targetFrame
	if f.target != nil {
		targframe = f.target.Frame()
	}
	targpos, targvel, _ = geometry.ParentSafetyAdjust(v, targframe, targpos, targvel)

	relpos := r3.Sub(targpos, v.Position())
	reldir := geometry.UnitSafe(relpos)
	relvel := r3.Sub(targvel, v.Velocity())
	targdist := r3.Norm(relpos)

	// frame switch: the old child and collision state refer to stale geometry
	if f.frame != v.Frame() {
		f.dropChild()
		if f.tangent && f.frame != nil {
			return StatusDone
		}
		f.reldir = reldir
		f.frame = v.Frame()
	}

	body := f.frame.Body()
	erad := geometry.MaxEffectRadius(body, v)
	if f.needsCollisionCheck(body, targpos, erad) {
		coll := geometry.CheckCollision(v, reldir, targdist, targpos, f.endvel, erad)
		switch {
		case coll == geometry.CollisionNone:
			f.dropChild()
		case coll == geometry.CollisionBelowFeatures:
			ang := v.FaceDirection(v.Position(), 0)
			if ang < climbOutAlignment {
				v.MatchVelocity(r3.Scale(climbOutSpeed, geometry.UnitSafe(v.Position())))
			} else {
				v.MatchVelocity(r3.Vec{})
			}
		default:
			f.setChild(t, f.detour(body, targpos, targdist, erad))
			f.processChild(t)
		}
		if coll != geometry.CollisionNone {
			f.state = -int(coll)
			return StatusContinue
		}
	}

	// a tangent leg that had to detour is stale; the parent regenerates it
	if f.state < 0 && f.state > flyToInitial && f.tangent {
		return StatusDone
	}
	if f.state < 0 {
		if targdist > f.tuning.LongHaulDistance {
			f.state = flyToBraking
		} else {
			f.state = flyToCoasting
		}
	}

	maxdecel := v.AccelRev()
	if f.state != flyToCoasting {
		maxdecel = v.AccelFwd()
	}
	gravdir := -r3.Dot(reldir, geometry.UnitSafe(v.Position()))
	maxdecel -= gravdir * geometry.GravityAt(v.Frame(), v.Position())
	zeroDecel := false
	if maxdecel < 0 {
		maxdecel = 0
		zeroDecel = true
	}

	speed := r3.Norm(v.Velocity())
	if speed > f.tuning.OvershootSpeed {
		if targdist < f.tuning.OvershootFarBand {
			maxdecel *= 0.25
		}
		if targdist < f.tuning.OvershootNearBand {
			maxdecel *= 0.125
		}
	}

	if targ, ok := f.target.(navigation.Vehicle); ok {
		orient := f.target.Frame().OrientRelTo(f.frame)
		targaccel := orient.Apply(targ.LastAcceleration())
		// targets accelerating toward us usually flip soon
		if r3.Dot(targaccel, reldir) < 0 && !targ.IsDecelerating() {
			targaccel = r3.Scale(0.5, targaccel)
		}
		relvel = r3.Add(relvel, r3.Scale(dt, targaccel))
		maxdecel += r3.Dot(targaccel, reldir)
		maxdecel = math.Max(maxdecel, 0.1*v.AccelFwd())
	}

	curspeed := -r3.Dot(relvel, reldir)
	tt := dt
	if !zeroDecel {
		tt = math.Max(math.Sqrt(2*targdist/maxdecel), dt)
	}
	perpvel := r3.Add(relvel, r3.Scale(curspeed, reldir))
	perpspeed := r3.Norm(perpvel)
	perpdir := r3.Vec{Z: 1}
	if perpspeed > 1e-30 {
		perpdir = r3.Scale(1/perpspeed, perpvel)
	}

	sidefactor := perpspeed / (tt * 0.5)
	if curspeed > (tt+dt)*maxdecel || maxdecel < sidefactor {
		v.FaceDirection(relvel, 0)
		v.MatchVelocity(targvel)
		f.state = flyToOverSpeed
		return StatusContinue
	}
	maxdecel = math.Sqrt(maxdecel*maxdecel - sidefactor*sidefactor)

	ispeed := 0.0
	if maxdecel >= 1e-10 {
		ispeed = geometry.InterceptSpeed(targdist, f.endvel, maxdecel, dt)
	}

	perpspeed = math.Min(perpspeed, 2*sidefactor*dt)

	sdiff := ispeed - curspeed
	var linaccel float64
	if sdiff < 0 {
		linaccel = math.Max(sdiff, -v.AccelFwd()*dt)
	} else {
		linaccel = math.Min(sdiff, v.AccelFwd()*dt)
	}

	vdiff := r3.Add(r3.Scale(linaccel, reldir), r3.Scale(perpspeed, perpdir))
	decel := sdiff <= 0
	v.SetDecelerating(decel)
	if decel {
		v.ChangeVelocityBy(vdiff)
	} else {
		v.ChangeVelocityDir(vdiff)
	}

	head := reldir
	if f.state == flyToCoasting && sdiff < -1.2*maxdecel*dt {
		f.state = flyToBraking
	}
	// braking: flip so the main thruster does the work
	if f.state != flyToCoasting && sdiff != 0 && sdiff < maxdecel*dt*flipWindowTicks {
		head = r3.Scale(-1, head)
	}
	if f.state == flyToCoasting && decel {
		sidefactor = -sidefactor
	}
	head = r3.Add(r3.Scale(maxdecel, head), r3.Scale(sidefactor, perpdir))

	if f.state >= flyToFinalAdjust {
		v.MatchAngularVelocity(r3.Vec{})
	} else {
		v.FaceDirection(head, 0)
	}
	if _, planet := body.(navigation.TerrainBody); planet && r3.Norm2(v.Position()) < 2*erad*erad {
		v.FaceUp(v.Position(), 0)
	}

	if f.state >= flyToFinalAdjust {
		return StatusDone
	}
	if f.endvel > 0 {
		if r3.Dot(reldir, f.reldir) < passThroughCos {
			return StatusDone
		}
	} else if targdist < 0.5*v.AccelMin()*dt*dt {
		f.state = flyToFinalAdjust
	}
	return StatusContinue
}

// aimPoint returns the target position and velocity in the vehicle's frame
func (f *FlyTo) aimPoint() (r3.Vec, r3.Vec) {
	v := f.vehicle
	if f.target != nil {
		targpos := f.target.PositionRelTo(v.Frame())
		toward := geometry.UnitSafe(r3.Sub(targpos, v.Position()))
		targpos = r3.Sub(targpos, r3.Scale(f.standoff, toward))
		return targpos, f.target.VelocityRelTo(v.Frame())
	}
	return geometry.PosInFrame(v.Frame(), f.targetFrame, f.offset),
		geometry.VelInFrame(v.Frame(), f.targetFrame, f.offset)
}

// needsCollisionCheck decides whether the frame body can obstruct the path.
// The target body itself is skipped unless the aim point lies inside its
// envelope, as happens with a zero standoff.
func (f *FlyTo) needsCollisionCheck(body navigation.Body, targpos r3.Vec, erad float64) bool {
	if f.target != nil && body != f.target {
		return true
	}
	if f.targetFrame != nil && (!f.tangent || body != f.targetFrame.Body()) {
		return true
	}
	return body != nil && r3.Norm(targpos) < erad
}

// detour builds the child that routes around the frame body
func (f *FlyTo) detour(body navigation.Body, targpos r3.Vec, targdist, erad float64) Command {
	if _, ok := f.vehicle.(navigation.TransitCapable); ok && targdist > f.tuning.NoTransitRange {
		ta := newTransitAround(f.vehicle, body, f.tuning)
		ta.SetTargetPosition(targpos)
		return ta
	}
	fa := newFlyAround(f.vehicle, body, erad*detourMargin, 0, FlyAroundToTarget, f.tuning)
	fa.SetTargetPosition(targpos)
	return fa
}

// driveTransit runs the transit drive for capable vehicles far from the
// target. It returns true when the drive has taken over this tick.
func (f *FlyTo) driveTransit(t *Tick) bool {
	v := f.vehicle
	tc, ok := v.(navigation.TransitCapable)
	if !ok || f.child != nil || v.FlightState() != navigation.FlightStateFlying {
		return false
	}

	var dist, radius float64
	var aim r3.Vec
	switch {
	case f.targetFrame != nil:
		radius = transitFrameRadius
		if body := f.targetFrame.Body(); body != nil {
			if _, planet := body.(navigation.TerrainBody); planet {
				radius = math.Max(body.PhysRadius()*1.25, transitPlanetFloor)
			}
		}
		dist = r3.Norm(v.PositionRelTo(f.targetFrame))
		aim = r3.Sub(f.targetFrame.PositionRelTo(v.Frame()), v.Position())
	case f.target != nil && !f.target.IsDead():
		radius = transitBodyRadius
		dist = r3.Norm(v.PositionRelTo(f.target.Frame()))
		switch f.target.(type) {
		case navigation.TerrainBody:
			radius = f.tuning.VicinityMul*geometry.MaxEffectRadius(f.target, v) + transitPlanetMargin
		case navigation.Vehicle:
			radius = transitChaseRadius
			dist = r3.Norm(geometry.RelativePosition(f.target, v))
		}
		aim = geometry.RelativePosition(f.target, v)
	default:
		return false
	}

	speed := r3.Norm(v.Velocity())
	if dist <= radius {
		capSpeed(v, f.tuning.TransitEngageSpeed)
		if tc.TransitDriveState() != navigation.TransitDriveOff {
			tc.SetTransitDriveState(navigation.TransitDriveOff)
		}
		return false
	}

	if speed > f.tuning.TransitReadySpeed() && tc.TransitDriveState() == navigation.TransitDriveOff {
		tc.SetTransitDriveState(navigation.TransitDriveReady)
	}
	if speed <= f.tuning.TransitEngageSpeed {
		return false
	}

	setspeed := math.Min(dist-radius, math.Min(speed*1.05, f.tuning.TransitSpeedCeiling))
	if tc.TransitDriveState() == navigation.TransitDriveStart {
		tc.SetTransitDriveState(navigation.TransitDriveOn)
	}
	if tc.TransitDriveState() == navigation.TransitDriveOn && speed > setspeed {
		tc.SetTransitDriveState(navigation.TransitDriveStop)
	}
	v.SetVelocity(r3.Scale(setspeed, v.Orient().Forward()))
	v.FaceDirection(aim, 0)
	return true
}

const (
	transitFrameRadius  = 5e7
	transitPlanetFloor  = 1e7
	transitPlanetMargin = 1.6e7
	transitBodyRadius   = 500000
	transitChaseRadius  = 50000
)

// capSpeed limits the vehicle speed, redirecting it along the nose
func capSpeed(v navigation.Vehicle, limit float64) {
	if r3.Norm(v.Velocity()) > limit {
		v.SetVelocity(r3.Scale(limit, v.Orient().Forward()))
	}
}
