package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// Collision classifies the risk of the straight path to a target
// intersecting the vehicle frame body's avoidance envelope.
type Collision int

const (
	// CollisionNone means the straight path is safe
	CollisionNone Collision = iota

	// CollisionBelowFeatures means the vehicle is under the highest terrain
	// feature while its target is not; it must climb straight out
	CollisionBelowFeatures

	// CollisionUnsafeEscape means the vehicle is inside the envelope and
	// the path leaves it too shallowly
	CollisionUnsafeEscape

	// CollisionUnsafeEntry means the target is inside the envelope and the
	// path enters it too shallowly
	CollisionUnsafeEntry

	// CollisionPathIntercept means the path passes through the envelope
	CollisionPathIntercept
)

var collisionNames = map[Collision]string{
	CollisionNone:          "NONE",
	CollisionBelowFeatures: "BELOW_FEATURES",
	CollisionUnsafeEscape:  "UNSAFE_ESCAPE",
	CollisionUnsafeEntry:   "UNSAFE_ENTRY",
	CollisionPathIntercept: "PATH_INTERCEPT",
}

func (c Collision) String() string {
	if name, ok := collisionNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// RequiresDetour is true for the classifications that need a fly-around
func (c Collision) RequiresDetour() bool {
	return c >= CollisionUnsafeEscape
}

// minCheckedPath below which no classification is attempted
const minCheckedPath = 100.0

// CheckCollision classifies the path of length pathdist along pathdir toward
// tpos (both in the vehicle's frame, whose body is the obstructor) against an
// envelope of radius r. endvel is the terminal speed the path is flown to.
//
// Entries and escapes are safe within a cone around the radial direction
// whose half-width shrinks from 60° at the feature radius to 90° at r.
func CheckCollision(v navigation.Vehicle, pathdir r3.Vec, pathdist float64, tpos r3.Vec, endvel, r float64) Collision {
	if pathdist < minCheckedPath {
		return CollisionNone
	}
	body := v.Frame().Body()
	if body == nil {
		return CollisionNone
	}

	spos := v.Position()
	tlen, slen := r3.Norm(tpos), r3.Norm(spos)
	fr := MaxFeatureRadius(body)

	if tlen < r {
		if tlen < fr && slen >= fr {
			// the aim point itself is buried; no straight entry reaches it
			return CollisionUnsafeEntry
		}
		if r3.Dot(pathdir, tpos) > -entryFactor(tlen, fr, r)*tlen {
			if slen < fr {
				return CollisionBelowFeatures
			}
			return CollisionUnsafeEntry
		}
		return CollisionNone
	}

	if slen < r {
		if slen < fr {
			return CollisionBelowFeatures
		}
		if r3.Dot(pathdir, spos) < entryFactor(slen, fr, r)*slen {
			return CollisionUnsafeEscape
		}
		return CollisionNone
	}

	// closest approach of the path to the obstructor
	tanlen := -r3.Dot(spos, pathdir)
	if tanlen < 0 || tanlen > pathdist {
		return CollisionNone
	}

	perpdir := UnitSafe(r3.Add(r3.Scale(tanlen, pathdir), spos))
	perpspeed := math.Min(r3.Dot(v.Velocity(), perpdir), 0)
	parspeed := math.Max(r3.Dot(v.Velocity(), pathdir), 0)

	// speed at the closest point, accelerating from either end
	ivelsqr := endvel*endvel + 2*v.AccelFwd()*(pathdist-tanlen)
	fvelsqr := parspeed*parspeed + 2*v.AccelFwd()*tanlen
	tanspeed := math.Sqrt(math.Min(ivelsqr, fvelsqr))
	if parspeed+tanspeed <= 0 {
		return CollisionNone
	}
	t := tanlen / (0.5 * (parspeed + tanspeed))

	dist := r3.Dot(spos, perpdir) + perpspeed*t
	if dist < r {
		return CollisionPathIntercept
	}
	return CollisionNone
}

// entryFactor is the cosine bound for a safe radial crossing at radius d
func entryFactor(d, fr, r float64) float64 {
	if d <= fr || r <= fr {
		return 0.5
	}
	return 0.5 * (1 - (d-fr)/(r-fr))
}
