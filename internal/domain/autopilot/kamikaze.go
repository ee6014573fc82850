package autopilot

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// Kamikaze rams the target. The closing speed shrinks near the target so a
// miss does not overshoot far.
type Kamikaze struct {
	base
	target navigation.Body
}

func NewKamikaze(v navigation.Vehicle, target navigation.Body, tuning *Tuning) (*Kamikaze, error) {
	if v == nil || target == nil {
		return nil, shared.NewInvalidCommandError(string(KindKamikaze), "vehicle and target are required")
	}
	return &Kamikaze{base: newBase(KindKamikaze, v, tuning), target: target}, nil
}

func (k *Kamikaze) Target() navigation.Body { return k.target }

func (k *Kamikaze) Advance(t *Tick) Status {
	v := k.vehicle
	if k.suspended() {
		return StatusContinue
	}
	if k.target == nil || k.target.IsDead() {
		return StatusDone
	}
	if !k.ensureFlying() {
		return StatusContinue
	}

	targetPos := geometry.RelativePosition(k.target, v)
	dist := r3.Norm(targetPos)

	// collide at a speed that takes two seconds of main thrust to cancel,
	// braking with a quarter of it on the way in
	impact := v.AccelFwd() * 2
	brake := v.AccelFwd() / 4
	aimSpeed := math.Sqrt(impact*impact + 2*dist*brake)

	aimVel := r3.Add(r3.Scale(aimSpeed, geometry.UnitSafe(targetPos)), k.target.VelocityRelTo(v.Frame()))
	accelDir := geometry.UnitSafe(r3.Sub(aimVel, v.Velocity()))

	v.ClearThrusters()
	v.FaceDirection(accelDir, 0)
	v.MatchVelocity(aimVel)
	return StatusContinue
}
