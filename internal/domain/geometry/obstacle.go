package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// buildingClearance is added above the highest terrain feature
const buildingClearance = 1000.0

// MaxFeatureRadius is the radius below which a path would hit solid matter
func MaxFeatureRadius(body navigation.Body) float64 {
	if body == nil {
		return 0
	}
	if terrain, ok := body.(navigation.TerrainBody); ok {
		return terrain.MaxFeatureRadius() + buildingClearance
	}
	return body.PhysRadius()
}

// MaxEffectRadius is the avoidance envelope of body for vehicle v. For terrain
// bodies it grows to the radius at which gravity equals the vehicle's
// upward acceleration.
func MaxEffectRadius(body navigation.Body, v navigation.Vehicle) float64 {
	if body == nil {
		return 0
	}
	if _, ok := body.(navigation.TerrainBody); ok {
		return math.Max(body.PhysRadius(), math.Sqrt(G*body.Mass()/v.AccelUp()))
	}
	if station, ok := body.(navigation.Station); ok {
		return station.ParkingDistance() + buildingClearance
	}
	return body.PhysRadius() + buildingClearance
}

// GravityAt returns the gravitational acceleration of frame's body at pos.
// Stations and empty frames exert none.
func GravityAt(frame navigation.Frame, pos r3.Vec) float64 {
	body := frame.Body()
	if body == nil {
		return 0
	}
	if _, ok := body.(navigation.Station); ok {
		return 0
	}
	rsqr := r3.Norm2(pos)
	if rsqr == 0 {
		return 0
	}
	return G * body.Mass() / rsqr
}

// PosInFrame returns target-frame offset expressed in frame
func PosInFrame(frame, target navigation.Frame, offset r3.Vec) r3.Vec {
	return r3.Add(target.OrientRelTo(frame).Apply(offset), target.PositionRelTo(frame))
}

// VelInFrame returns the velocity of a point fixed at offset in target,
// expressed in frame. Points fixed in a rotating frame carry its stasis velocity.
func VelInFrame(frame, target navigation.Frame, offset r3.Vec) r3.Vec {
	var vel r3.Vec
	if target != frame && target.IsRotating() {
		vel = r3.Scale(-1, target.StasisVelocity(offset))
	}
	return r3.Add(target.OrientRelTo(frame).Apply(vel), target.VelocityRelTo(frame))
}

// tangentClearance keeps the tangent construction valid when the craft has
// already dipped under the requested altitude
const tangentClearance = 1.02

// Tangent returns the point, in targframe, where a line from the vehicle
// touches the sphere of radius alt around targframe's origin, on the side
// facing shipTarget (given in the vehicle's frame).
func Tangent(v navigation.Vehicle, targframe navigation.Frame, shipTarget r3.Vec, alt float64) r3.Vec {
	spos := v.PositionRelTo(targframe)
	targ := PosInFrame(targframe, v.Frame(), shipTarget)

	a, b := r3.Norm(spos), alt
	if b*tangentClearance > a {
		if a == 0 {
			spos = r3.Vec{X: 1}
			a = 1
		}
		spos = r3.Scale(b*tangentClearance/a, spos)
		a = b * tangentClearance
	}
	c := math.Sqrt(a*a - b*b)

	side := r3.Cross(r3.Cross(spos, targ), spos)
	if r3.Norm2(side) < 1e-18 {
		// target on the line through the centre: any side will do
		side = r3.Cross(r3.Cross(spos, perpendicularTo(spos)), spos)
	}
	side = r3.Unit(side)

	return r3.Add(r3.Scale(b*b/(a*a), spos), r3.Scale(b*c/a, side))
}

func perpendicularTo(v r3.Vec) r3.Vec {
	if math.Abs(v.X) < 0.9*r3.Norm(v) {
		return r3.Cross(v, r3.Vec{X: 1})
	}
	return r3.Cross(v, r3.Vec{Y: 1})
}

// CheckSuicide reports whether the vehicle is falling toward its frame's
// terrain faster than its weakest thruster could arrest. tandir points from
// the body toward the vehicle's intended position.
func CheckSuicide(v navigation.Vehicle, tandir r3.Vec) bool {
	body := v.Frame().Body()
	if body == nil {
		return false
	}
	if _, ok := body.(navigation.TerrainBody); !ok {
		return false
	}

	vel := r3.Dot(v.Velocity(), tandir)
	dist := r3.Norm(v.Position()) - MaxFeatureRadius(body)
	return vel < -1 && vel*vel > 2*v.AccelMin()*dist
}

// safetyEffectMultiple is how far outside a parent body's envelope the aim
// point is pulled back to
const safetyEffectMultiple = 1.5

// ParentSafetyAdjust walks from the target's frame up toward the vehicle's
// and finds the outermost body whose frame the vehicle is not inside. When
// that body lies short of the target along the path, the aim point is
// pulled back to 1.5 envelopes from it and its velocity is matched instead.
func ParentSafetyAdjust(v navigation.Vehicle, targframe navigation.Frame, targpos, targvel r3.Vec) (r3.Vec, r3.Vec, bool) {
	var body navigation.Body
	shipFrame := v.Frame().NonRotating()

	for frame := targframe.NonRotating(); frame != nil; {
		if frame == shipFrame {
			break
		}
		if b := frame.Body(); b != nil {
			body = b
		}
		if r3.Norm(v.PositionRelTo(frame)) < frame.Radius() {
			break
		}
		parent := frame.Parent()
		if parent == nil {
			break
		}
		frame = parent.NonRotating()
	}
	if body == nil {
		return targpos, targvel, false
	}

	path := r3.Sub(targpos, v.Position())
	targdist := r3.Norm(path)
	bodydist := r3.Norm(RelativePosition(body, v)) - MaxEffectRadius(body, v)*safetyEffectMultiple
	if targdist < bodydist || targdist == 0 {
		return targpos, targvel, false
	}

	targpos = r3.Sub(targpos, r3.Scale((targdist-bodydist)/targdist, path))
	targvel = body.VelocityRelTo(v.Frame())
	return targpos, targvel, true
}
