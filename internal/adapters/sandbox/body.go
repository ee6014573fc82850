package sandbox

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// kinematics is the state every sandbox body carries, relative to its frame
type kinematics struct {
	label  string
	frame  *Frame
	pos    r3.Vec
	vel    r3.Vec
	orient navigation.Orientation
	angvel r3.Vec
	mass   float64
	radius float64
	dead   bool
}

func newKinematics(label string, frame *Frame, pos r3.Vec, mass, radius float64) kinematics {
	return kinematics{
		label:  label,
		frame:  frame,
		pos:    pos,
		orient: navigation.Identity(),
		mass:   mass,
		radius: radius,
	}
}

func (k *kinematics) Label() string                      { return k.label }
func (k *kinematics) Frame() navigation.Frame            { return k.frame }
func (k *kinematics) Position() r3.Vec                   { return k.pos }
func (k *kinematics) Velocity() r3.Vec                   { return k.vel }
func (k *kinematics) Orient() navigation.Orientation     { return k.orient }
func (k *kinematics) AngularVelocity() r3.Vec            { return k.angvel }
func (k *kinematics) Mass() float64                      { return k.mass }
func (k *kinematics) PhysRadius() float64                { return k.radius }
func (k *kinematics) IsDead() bool                       { return k.dead }
func (k *kinematics) SetPosition(pos r3.Vec)             { k.pos = pos }
func (k *kinematics) SetOrient(o navigation.Orientation) { k.orient = o }
func (k *kinematics) SetAngularVelocity(av r3.Vec)       { k.angvel = av }
func (k *kinematics) Kill()                              { k.dead = true }
func (k *kinematics) SetVelocity(vel r3.Vec)             { k.vel = vel }
func (k *kinematics) absolute() (r3.Vec, r3.Vec)         { return k.frame.toAbsolute(k.pos, k.vel) }

func (k *kinematics) PositionRelTo(f navigation.Frame) r3.Vec {
	pos, _ := asFrame(f).fromAbsolute(k.absolute())
	return pos
}

func (k *kinematics) VelocityRelTo(f navigation.Frame) r3.Vec {
	_, vel := asFrame(f).fromAbsolute(k.absolute())
	return vel
}

func (k *kinematics) OrientRelTo(f navigation.Frame) navigation.Orientation {
	return k.frame.OrientRelTo(f).Mul(k.orient)
}

// spin integrates the angular velocity, given in frame axes
func (k *kinematics) spin(dt float64) {
	rate := r3.Norm(k.angvel)
	if rate*dt < 1e-16 {
		return
	}
	k.orient = navigation.RotationAbout(r3.Unit(k.angvel), rate*dt).Mul(k.orient).Orthonormalize()
}

// moveTo re-expresses the body in another frame without changing its motion
func (k *kinematics) moveTo(f *Frame) {
	if f == k.frame {
		return
	}
	orient := k.OrientRelTo(f)
	k.pos, k.vel = f.fromAbsolute(k.absolute())
	k.orient = orient
	k.frame = f
}
