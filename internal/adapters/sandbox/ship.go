package sandbox

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

const (
	// gear extension per second
	wheelRate = 0.3

	landingSpeed = 10.0
	launchSpeed  = 10.0
)

// ShipSpec describes a ship to add to a world
type ShipSpec struct {
	Label    string
	Position r3.Vec
	Velocity r3.Vec
	Orient   *navigation.Orientation
	Mass     float64
	Radius   float64

	// Thrust accelerations per object axis in m/s²
	AccelFwd   float64
	AccelRev   float64
	AccelUp    float64
	AccelDown  float64
	AccelLeft  float64
	AccelRight float64

	// TurnRate limits attitude changes in rad/s; zero turns instantly
	TurnRate float64

	// HullBottom is the lowest hull point on the Y axis; defaults to -Radius/2
	HullBottom float64

	// State defaults to FLYING
	State navigation.FlightState
}

// hulled is implemented by every sandbox vehicle
type hulled interface {
	hull() *Ship
}

// Ship is a thrust-limited vehicle. Actuation calls set thruster levels
// and attitude; motion happens when the world steps.
type Ship struct {
	kinematics
	spec   ShipSpec
	flight *navigation.FlightStateMachine
	ai     navigation.AIMessageLatch

	thrust      r3.Vec
	thrustScale float64
	lastAccel   r3.Vec
	decel       bool

	wheels     float64
	wheelsDown bool

	dt       float64
	dockedAt *Station
}

func newShip(spec ShipSpec, frame *Frame, dt float64) (*Ship, error) {
	state := spec.State
	if state == "" {
		state = navigation.FlightStateFlying
	}
	flight, err := navigation.NewFlightStateMachine(state)
	if err != nil {
		return nil, err
	}
	if spec.HullBottom == 0 {
		spec.HullBottom = -spec.Radius / 2
	}

	s := &Ship{
		kinematics:  newKinematics(spec.Label, frame, spec.Position, spec.Mass, spec.Radius),
		spec:        spec,
		flight:      flight,
		thrustScale: 1,
		dt:          dt,
	}
	s.vel = spec.Velocity
	if spec.Orient != nil {
		s.orient = *spec.Orient
	}
	return s, nil
}

func (s *Ship) hull() *Ship { return s }

// FlightStateMachine exposes the state machine for jump and landing control
func (s *Ship) FlightStateMachine() *navigation.FlightStateMachine { return s.flight }

func (s *Ship) FlightState() navigation.FlightState { return s.flight.State() }

// DockedAt returns the station holding the ship, or nil
func (s *Ship) DockedAt() *Station { return s.dockedAt }

func (s *Ship) Launch() {
	switch s.flight.State() {
	case navigation.FlightStateDocked:
		st := s.dockedAt
		if err := s.flight.Undock(); err != nil {
			return
		}
		s.dockedAt = nil
		if st == nil {
			return
		}
		port := st.portHeldBy(s)
		st.release(s)
		if port >= 0 {
			s.pos = r3.Add(st.orient.Apply(st.ports[port].approach.Position), st.pos)
		}
		s.vel = st.vel
	case navigation.FlightStateLanded:
		if err := s.flight.Blastoff(); err != nil {
			return
		}
		s.vel = r3.Scale(launchSpeed, geometry.UnitSafe(s.pos))
	}
}

func (s *Ship) SetWheelState(down bool) bool {
	if s.flight.State() != navigation.FlightStateFlying {
		return false
	}
	s.wheelsDown = down
	return true
}

func (s *Ship) WheelState() float64 { return s.wheels }
func (s *Ship) AccelFwd() float64   { return s.spec.AccelFwd }
func (s *Ship) AccelRev() float64   { return s.spec.AccelRev }
func (s *Ship) AccelUp() float64    { return s.spec.AccelUp }

func (s *Ship) AccelMin() float64 {
	return math.Min(s.spec.AccelUp, math.Min(s.spec.AccelLeft, s.spec.AccelRight))
}

// limits returns the per-tick velocity change available along each object
// axis in the direction of obj
func (s *Ship) limits(obj r3.Vec) r3.Vec {
	pick := func(c, pos, neg float64) float64 {
		if c >= 0 {
			return pos
		}
		return neg
	}
	scale := s.dt * s.thrustScale
	return r3.Vec{
		X: pick(obj.X, s.spec.AccelRight, s.spec.AccelLeft) * scale,
		Y: pick(obj.Y, s.spec.AccelUp, s.spec.AccelDown) * scale,
		Z: pick(obj.Z, s.spec.AccelRev, s.spec.AccelFwd) * scale,
	}
}

// setLevels converts an object-space velocity change into thruster levels,
// clamping each axis; it reports whether the change fits in one tick
func (s *Ship) setLevels(obj r3.Vec) bool {
	lim := s.limits(obj)
	covered := true
	level := func(dv, limit float64) float64 {
		if limit <= 0 {
			if dv != 0 {
				covered = false
			}
			return 0
		}
		l := dv / limit
		if math.Abs(l) > 1 {
			covered = false
			l = math.Copysign(1, l)
		}
		return l
	}
	s.thrust = r3.Vec{X: level(obj.X, lim.X), Y: level(obj.Y, lim.Y), Z: level(obj.Z, lim.Z)}
	return covered
}

func (s *Ship) MatchVelocity(vel r3.Vec) bool {
	return s.setLevels(s.orient.ApplyInverse(r3.Sub(vel, s.vel)))
}

func (s *Ship) ChangeVelocityBy(dv r3.Vec) {
	s.setLevels(s.orient.ApplyInverse(dv))
}

func (s *Ship) ChangeVelocityDir(dv r3.Vec) {
	obj := s.orient.ApplyInverse(dv)
	lim := s.limits(obj)
	ratio := 0.0
	for _, p := range [][2]float64{{obj.X, lim.X}, {obj.Y, lim.Y}, {obj.Z, lim.Z}} {
		if p[1] > 0 {
			ratio = math.Max(ratio, math.Abs(p[0])/p[1])
		}
	}
	if ratio > 1 {
		obj = r3.Scale(1/ratio, obj)
	}
	s.setLevels(obj)
}

func (s *Ship) MatchAngularVelocity(av r3.Vec) {
	s.angvel = s.orient.Apply(av)
}

// turnStep is the largest rotation allowed in one tick
func (s *Ship) turnStep() float64 {
	if s.spec.TurnRate <= 0 {
		return math.Inf(1)
	}
	return s.spec.TurnRate * s.dt
}

// FaceDirection turns the nose toward dir. Attitude is kinematic, so the
// frame angular speed is not needed.
func (s *Ship) FaceDirection(dir r3.Vec, _ float64) float64 {
	if r3.Norm2(dir) < 1e-18 {
		return 0
	}
	fwd := s.orient.Forward()
	angle := navigation.AngleBetween(fwd, dir)
	step := s.turnStep()
	if angle <= step {
		s.orient = navigation.LookAlong(dir, s.orient.Up())
		return 0
	}
	axis := r3.Cross(fwd, dir)
	if r3.Norm2(axis) < 1e-18 {
		axis = s.orient.Up()
	}
	s.orient = navigation.RotationAbout(r3.Unit(axis), step).Mul(s.orient).Orthonormalize()
	return angle - step
}

// FaceUp rolls about the nose so the up axis points as close to up as possible
func (s *Ship) FaceUp(up r3.Vec, _ float64) float64 {
	fwd := s.orient.Forward()
	target := r3.Sub(up, r3.Scale(r3.Dot(up, fwd), fwd))
	if r3.Norm2(target) < 1e-18 {
		return 0
	}
	angle := navigation.AngleBetween(s.orient.Up(), target)
	step := s.turnStep()
	if angle <= step {
		s.orient = navigation.LookAlong(fwd, target)
		return 0
	}
	axis := r3.Cross(s.orient.Up(), target)
	if r3.Norm2(axis) < 1e-18 {
		axis = fwd
	}
	s.orient = navigation.RotationAbout(r3.Unit(axis), step).Mul(s.orient).Orthonormalize()
	return angle - step
}

func (s *Ship) SetThrusterLevels(levels r3.Vec) {
	clamp := func(x float64) float64 { return math.Max(-1, math.Min(1, x)) }
	s.thrust = r3.Vec{X: clamp(levels.X), Y: clamp(levels.Y), Z: clamp(levels.Z)}
}

func (s *Ship) ThrusterLevels() r3.Vec   { return s.thrust }
func (s *Ship) ClearThrusters()          { s.thrust = r3.Vec{} }
func (s *Ship) SetDecelerating(d bool)   { s.decel = d }
func (s *Ship) IsDecelerating() bool     { return s.decel }
func (s *Ship) LastAcceleration() r3.Vec { return s.lastAccel }
func (s *Ship) HullBottom() float64      { return s.spec.HullBottom }

func (s *Ship) AIMessage() navigation.AIMessage { return s.ai.Peek() }

func (s *Ship) SwapAIMessage(next navigation.AIMessage) navigation.AIMessage {
	return s.ai.Swap(next)
}

// thrustAccel is the acceleration the current levels produce, in frame axes
func (s *Ship) thrustAccel() r3.Vec {
	l := s.thrust
	lim := s.limits(l)
	if s.dt > 0 {
		lim = r3.Scale(1/s.dt, lim)
	}
	return s.orient.Apply(r3.Vec{X: l.X * lim.X, Y: l.Y * lim.Y, Z: l.Z * lim.Z})
}

// gravity from the body at the frame origin
func (s *Ship) gravity() r3.Vec {
	body := s.frame.body
	if body == nil {
		return r3.Vec{}
	}
	if _, ok := body.(navigation.TerrainBody); !ok {
		return r3.Vec{}
	}
	r := r3.Norm(s.pos)
	if r == 0 {
		return r3.Vec{}
	}
	return r3.Scale(-geometry.G*body.Mass()/(r*r*r), s.pos)
}

// step integrates one tick with semi-implicit Euler
func (s *Ship) step(dt float64) {
	s.dt = dt
	s.rampWheels(dt)

	switch s.flight.State() {
	case navigation.FlightStateDocked:
		if st := s.dockedAt; st != nil {
			if port := st.portHeldBy(s); port >= 0 {
				s.pos = st.portPosition(port)
			}
			s.vel = st.vel
		}
		s.lastAccel = r3.Vec{}
		return
	case navigation.FlightStateFlying:
	default:
		s.lastAccel = r3.Vec{}
		return
	}

	accel := s.thrustAccel()
	s.lastAccel = accel
	s.vel = r3.Add(s.vel, r3.Scale(dt, r3.Add(accel, s.gravity())))
	s.pos = r3.Add(s.pos, r3.Scale(dt, s.vel))
	s.spin(dt)
	s.decel = false
	s.checkSurface()
}

func (s *Ship) rampWheels(dt float64) {
	if s.wheelsDown {
		s.wheels = math.Min(1, s.wheels+wheelRate*dt)
	} else {
		s.wheels = math.Max(0, s.wheels-wheelRate*dt)
	}
}

// checkSurface lands gentle arrivals with the gear down and destroys the rest
func (s *Ship) checkSurface() {
	body := s.frame.body
	if body == nil {
		return
	}
	if _, ok := body.(navigation.TerrainBody); !ok {
		return
	}
	ground := body.PhysRadius() - s.spec.HullBottom
	r := r3.Norm(s.pos)
	if r >= ground {
		return
	}
	if r3.Norm(s.vel) < landingSpeed && s.wheels >= 1 && s.flight.TouchDown() == nil {
		s.pos = r3.Scale(ground/math.Max(r, 1e-9), s.pos)
		s.vel = r3.Vec{}
		s.thrust = r3.Vec{}
		return
	}
	s.dead = true
	s.thrust = r3.Vec{}
}

// dockAt hands the ship to the station
func (s *Ship) dockAt(st *Station) {
	if err := s.flight.CompleteDocking(); err != nil {
		return
	}
	s.dockedAt = st
	s.thrust = r3.Vec{}
	s.angvel = r3.Vec{}
	s.wheelsDown = false
	s.moveTo(st.frame)
	if port := st.portHeldBy(s); port >= 0 {
		s.pos = st.portPosition(port)
	}
	s.vel = st.vel
}
