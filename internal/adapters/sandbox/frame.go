// Package sandbox is an in-process physics world implementing the
// navigation ports: a frame tree, planets, stations and thrust-limited
// ships integrated at a fixed timestep. The CLI and the test suites fly
// autopilot commands against it.
package sandbox

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

var yAxis = r3.Vec{Y: 1}

// Frame is a node of the sandbox frame tree.
//
// Non-rotating frames may move at a constant velocity inside their parent.
// Rotating frames share the origin of a non-rotating frame and spin about
// its Y axis; they never parent other frames.
type Frame struct {
	label  string
	parent *Frame
	nonrot *Frame
	radius float64
	body   navigation.Body

	pos    r3.Vec
	vel    r3.Vec
	orient navigation.Orientation

	spin  float64
	angle float64
	depth int
}

// NewRootFrame creates the top of a frame tree
func NewRootFrame(label string, radius float64) *Frame {
	f := &Frame{label: label, radius: radius, orient: navigation.Identity()}
	f.nonrot = f
	return f
}

// NewFrame attaches a non-rotating frame to parent's non-rotating frame
func NewFrame(label string, parent *Frame, pos, vel r3.Vec, radius float64) *Frame {
	p := parent.nonrot
	f := &Frame{
		label:  label,
		parent: p,
		radius: radius,
		pos:    pos,
		vel:    vel,
		orient: navigation.Identity(),
		depth:  p.depth + 1,
	}
	f.nonrot = f
	return f
}

// NewRotatingFrame creates a frame spinning at spin rad/s about the Y axis
// of base, sharing its origin and radius
func NewRotatingFrame(label string, base *Frame, spin float64) *Frame {
	nr := base.nonrot
	return &Frame{
		label:  label,
		parent: nr,
		nonrot: nr,
		radius: nr.radius,
		body:   nr.body,
		orient: navigation.Identity(),
		spin:   spin,
		depth:  nr.depth + 1,
	}
}

func (f *Frame) Label() string { return f.label }

func (f *Frame) Parent() navigation.Frame {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func (f *Frame) NonRotating() navigation.Frame { return f.nonrot }
func (f *Frame) IsRotating() bool              { return f.nonrot != f }
func (f *Frame) Radius() float64               { return f.radius }

func (f *Frame) Body() navigation.Body {
	if f.body == nil {
		return nil
	}
	return f.body
}

func (f *Frame) AngularVelocity() r3.Vec {
	if !f.IsRotating() {
		return r3.Vec{}
	}
	return r3.Scale(f.spin, yAxis)
}

func (f *Frame) StasisVelocity(pos r3.Vec) r3.Vec {
	return r3.Cross(pos, f.AngularVelocity())
}

func (f *Frame) PositionRelTo(other navigation.Frame) r3.Vec {
	pos, _ := asFrame(other).fromAbsolute(f.toAbsolute(r3.Vec{}, r3.Vec{}))
	return pos
}

func (f *Frame) VelocityRelTo(other navigation.Frame) r3.Vec {
	_, vel := asFrame(other).fromAbsolute(f.toAbsolute(r3.Vec{}, r3.Vec{}))
	return vel
}

func (f *Frame) OrientRelTo(other navigation.Frame) navigation.Orientation {
	_, _, mine := f.absolute()
	_, _, theirs := asFrame(other).absolute()
	return theirs.Transpose().Mul(mine)
}

// attach binds the body sitting at the frame origin
func (f *Frame) attach(body navigation.Body) { f.body = body }

// advance moves the frame along its velocity and spins rotating frames
func (f *Frame) advance(dt float64) {
	if f.IsRotating() {
		f.angle += f.spin * dt
		f.orient = navigation.RotationAbout(yAxis, f.angle)
		return
	}
	f.pos = r3.Add(f.pos, r3.Scale(dt, f.vel))
}

// absolute returns the frame origin, its velocity and its axes in root coordinates
func (f *Frame) absolute() (r3.Vec, r3.Vec, navigation.Orientation) {
	if f.parent == nil {
		return r3.Vec{}, r3.Vec{}, navigation.Identity()
	}
	ppos, pvel, porient := f.parent.absolute()
	return r3.Add(ppos, porient.Apply(f.pos)),
		r3.Add(pvel, porient.Apply(f.vel)),
		porient.Mul(f.orient)
}

// toAbsolute converts a point moving in this frame to root coordinates
func (f *Frame) toAbsolute(pos, vel r3.Vec) (r3.Vec, r3.Vec) {
	fpos, fvel, orient := f.absolute()
	local := r3.Add(vel, r3.Cross(f.AngularVelocity(), pos))
	return r3.Add(fpos, orient.Apply(pos)), r3.Add(fvel, orient.Apply(local))
}

// fromAbsolute converts a root-coordinate point into this frame
func (f *Frame) fromAbsolute(pos, vel r3.Vec) (r3.Vec, r3.Vec) {
	fpos, fvel, orient := f.absolute()
	rel := orient.ApplyInverse(r3.Sub(pos, fpos))
	relvel := orient.ApplyInverse(r3.Sub(vel, fvel))
	return rel, r3.Sub(relvel, r3.Cross(f.AngularVelocity(), rel))
}

// contains reports whether a root-coordinate point lies inside the frame radius
func (f *Frame) contains(abs r3.Vec) bool {
	fpos, _, _ := f.absolute()
	return r3.Norm(r3.Sub(abs, fpos)) < f.radius
}

func asFrame(f navigation.Frame) *Frame {
	sf, ok := f.(*Frame)
	if !ok {
		panic("sandbox: foreign frame " + f.Label())
	}
	return sf
}
