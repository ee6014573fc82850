package autopilot

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// Formation keeps station at an offset expressed in the leader's object
// space, facing the leader's heading. It never finishes by itself.
type Formation struct {
	base
	target navigation.Vehicle
	offset r3.Vec
}

func NewFormation(v navigation.Vehicle, leader navigation.Vehicle, offset r3.Vec, tuning *Tuning) (*Formation, error) {
	if v == nil || leader == nil {
		return nil, shared.NewInvalidCommandError(string(KindFormation), "vehicle and leader are required")
	}
	if v == leader {
		return nil, shared.NewInvalidCommandError(string(KindFormation), "a vehicle cannot fly formation on itself")
	}
	return &Formation{base: newBase(KindFormation, v, tuning), target: leader, offset: offset}, nil
}

func (f *Formation) Target() navigation.Vehicle { return f.target }
func (f *Formation) Offset() r3.Vec             { return f.offset }

func (f *Formation) Advance(t *Tick) Status {
	v := f.vehicle
	if f.suspended() {
		return StatusContinue
	}
	if f.target == nil || f.target.IsDead() {
		return StatusDone
	}
	if !f.processChild(t) {
		return StatusContinue
	}
	if !f.ensureFlying() {
		return StatusContinue
	}

	if r3.Norm(geometry.RelativePosition(f.target, v)) > f.tuning.FormationRange {
		f.setChild(t, newFlyToBody(v, f.target, f.tuning))
		f.processChild(t)
		return StatusContinue
	}

	torient := f.target.OrientRelTo(v.Frame())
	relpos := r3.Add(geometry.RelativePosition(f.target, v), torient.Apply(f.offset))
	relvel := r3.Scale(-1, geometry.RelativeVelocity(f.target, v))
	targdist := r3.Norm(relpos)
	reldir := r3.Vec{X: 1}
	if targdist >= 1e-16 {
		reldir = r3.Scale(1/targdist, relpos)
	}

	forient := f.target.Frame().OrientRelTo(v.Frame())
	targaccel := forient.Apply(f.target.LastAcceleration())
	relvel = r3.Sub(relvel, r3.Scale(t.Timestep, targaccel))
	maxdecel := math.Max(0, v.AccelFwd()+r3.Dot(targaccel, reldir))

	ispeed := geometry.InterceptSpeed(targdist, 0, maxdecel, t.Timestep)
	v.ChangeVelocityDir(r3.Sub(r3.Scale(ispeed, reldir), relvel))
	if f.target.IsDecelerating() {
		v.SetDecelerating(true)
	}

	v.FaceDirection(r3.Scale(-1, torient.Z), 0)
	return StatusContinue
}
