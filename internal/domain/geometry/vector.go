// Package geometry holds the obstacle and intercept calculations shared by
// the autopilot commands. Every function is pure: it reads kinematic state
// through the navigation ports and never actuates.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// G is the gravitational constant in m³/(kg·s²)
const G = 6.67428e-11

// UnitSafe normalises v, returning +X for vectors too short to normalise
func UnitSafe(v r3.Vec) r3.Vec {
	if r3.Norm2(v) < 1e-18 {
		return r3.Vec{X: 1}
	}
	return r3.Unit(v)
}

// RelativePosition returns target's position relative to the observer body,
// in the observer's frame
func RelativePosition(target, observer navigation.Body) r3.Vec {
	return r3.Sub(target.PositionRelTo(observer.Frame()), observer.Position())
}

// RelativeVelocity returns target's velocity relative to the observer body,
// in the observer's frame
func RelativeVelocity(target, observer navigation.Body) r3.Vec {
	return r3.Sub(target.VelocityRelTo(observer.Frame()), observer.Velocity())
}

// InterceptSpeed returns the closing speed to hold now so that constant
// deceleration acc brings the craft to terminal speed vel after dist.
// A 0.9 margin absorbs thrust ramp-up; the discrete-step correction stops the
// last tick from overshooting. Negative distances mirror the result.
func InterceptSpeed(dist, vel, acc, dt float64) float64 {
	sign := 1.0
	if dist < 0 {
		dist, vel, sign = -dist, -vel, -1
	}
	ivel := 0.9 * math.Sqrt(vel*vel+2*acc*dist)

	endvel := ivel - acc*dt
	if endvel <= 0 {
		ivel = dist / dt
	} else {
		ivel = (ivel + endvel) * 0.5
	}
	return ivel * sign
}
