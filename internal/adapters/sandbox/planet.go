package sandbox

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Planet is a terrain body sitting at the origin of its own frame
type Planet struct {
	kinematics
	maxFeature float64
	rotFrame   *Frame
}

// PlanetSpec describes a planet to add to a world
type PlanetSpec struct {
	Label string

	// Position and Velocity of the planet frame inside the parent frame
	Position r3.Vec
	Velocity r3.Vec

	Mass   float64
	Radius float64

	// MaxFeatureRadius is the radius of the highest terrain; defaults to Radius
	MaxFeatureRadius float64

	// FrameRadius bounds the planet's frame; defaults to 100 radii
	FrameRadius float64

	// Spin of the attached rotating frame in rad/s; zero for none
	Spin float64
}

func newPlanet(spec PlanetSpec, parent *Frame) *Planet {
	frameRadius := spec.FrameRadius
	if frameRadius == 0 {
		frameRadius = 100 * spec.Radius
	}
	maxFeature := spec.MaxFeatureRadius
	if maxFeature < spec.Radius {
		maxFeature = spec.Radius
	}

	frame := NewFrame(spec.Label, parent, spec.Position, spec.Velocity, frameRadius)
	p := &Planet{
		kinematics: newKinematics(spec.Label, frame, r3.Vec{}, spec.Mass, spec.Radius),
		maxFeature: maxFeature,
	}
	frame.attach(p)
	if spec.Spin != 0 {
		p.rotFrame = NewRotatingFrame(spec.Label+" (rotating)", frame, spec.Spin)
	}
	return p
}

func (p *Planet) MaxFeatureRadius() float64 { return p.maxFeature }

// NonRotatingFrame is the frame ships near the planet fly in
func (p *Planet) NonRotatingFrame() *Frame { return p.frame }

// RotatingFrame returns the surface-fixed frame, or nil for a still planet
func (p *Planet) RotatingFrame() *Frame { return p.rotFrame }
