package sandbox

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// capture tolerances at the final docking waypoint
const (
	captureDistance = 50.0
	captureSpeed    = 10.0
)

// StationSpec describes a station to add to a world
type StationSpec struct {
	Label    string
	Position r3.Vec
	Mass     float64
	Radius   float64

	// Ground stations sit on a planet surface and dock with the surface method
	Ground bool

	// Ports is the number of docking ports; defaults to one
	Ports int

	// ParkingDistance is the holding radius around the station; defaults to 5 radii
	ParkingDistance float64

	// Spin about the station's Y axis in rad/s
	Spin float64

	// RefuseClearance makes every clearance request fail
	RefuseClearance bool
}

type dockingPort struct {
	assigned navigation.Vehicle
	approach navigation.DockingPose
	final    navigation.DockingPose
}

// Station hands out docking ports and captures vehicles that reach them
type Station struct {
	kinematics
	ground  bool
	parking float64
	refuse  bool
	ports   []*dockingPort
}

func newStation(spec StationSpec, frame *Frame) *Station {
	parking := spec.ParkingDistance
	if parking == 0 {
		parking = 5 * spec.Radius
	}
	n := spec.Ports
	if n <= 0 {
		n = 1
	}

	s := &Station{
		kinematics: newKinematics(spec.Label, frame, spec.Position, spec.Mass, spec.Radius),
		ground:     spec.Ground,
		parking:    parking,
		refuse:     spec.RefuseClearance,
	}
	s.angvel = r3.Scale(spec.Spin, yAxis)
	if spec.Ground {
		// stand upright on the surface
		s.orient = navigation.LookAlong(perpendicular(spec.Position), spec.Position)
	}

	for i := 0; i < n; i++ {
		s.ports = append(s.ports, s.layoutPort(i, n))
	}
	return s
}

// layoutPort spreads ports around the station's Y axis. Orbital ports face
// outward on the equator; ground ports are pads on the roof.
func (s *Station) layoutPort(i, n int) *dockingPort {
	angle := 2 * math.Pi * float64(i) / float64(n)
	out := r3.Vec{X: math.Sin(angle), Z: math.Cos(angle)}

	if s.ground {
		pad := r3.Scale(s.radius*0.5, out)
		return &dockingPort{
			approach: navigation.DockingPose{
				Position: r3.Add(pad, r3.Scale(s.radius*2, yAxis)),
				XAxis:    r3.Cross(yAxis, out),
				YAxis:    yAxis,
				ZAxis:    out,
			},
			final: navigation.DockingPose{
				Position: r3.Add(pad, r3.Scale(s.radius, yAxis)),
				XAxis:    r3.Cross(yAxis, out),
				YAxis:    yAxis,
				ZAxis:    out,
			},
		}
	}

	inward := r3.Scale(-1, out)
	return &dockingPort{
		approach: navigation.DockingPose{
			Position: r3.Scale(s.radius*4, out),
			XAxis:    r3.Cross(yAxis, inward),
			YAxis:    yAxis,
			ZAxis:    inward,
		},
		final: navigation.DockingPose{
			Position: r3.Scale(s.radius*1.2, out),
			XAxis:    r3.Cross(yAxis, inward),
			YAxis:    yAxis,
			ZAxis:    inward,
		},
	}
}

func (s *Station) IsGroundStation() bool    { return s.ground }
func (s *Station) ParkingDistance() float64 { return s.parking }

func (s *Station) DockMethod() navigation.DockMethod {
	if s.ground {
		return navigation.DockMethodSurface
	}
	return navigation.DockMethodOrbital
}

func (s *Station) DockingPortFor(v navigation.Vehicle) int {
	for i, p := range s.ports {
		if p.assigned == v {
			return i
		}
	}
	return -1
}

func (s *Station) RequestDockingClearance(v navigation.Vehicle) bool {
	if s.refuse {
		return false
	}
	if s.DockingPortFor(v) >= 0 {
		return true
	}
	for _, p := range s.ports {
		if p.assigned == nil {
			p.assigned = v
			return true
		}
	}
	return false
}

func (s *Station) ApproachWaypoint(port, stage int) (navigation.DockingPose, bool) {
	if port < 0 || port >= len(s.ports) {
		return navigation.DockingPose{}, false
	}
	switch stage {
	case 1:
		return s.ports[port].approach, true
	case 2:
		return s.ports[port].final, true
	}
	return navigation.DockingPose{}, false
}

// holder returns the ship a port is assigned to, or nil
func (p *dockingPort) holder() *Ship {
	if h, ok := p.assigned.(hulled); ok {
		return h.hull()
	}
	return nil
}

// portHeldBy returns the port assigned to ship, or -1
func (s *Station) portHeldBy(ship *Ship) int {
	for i, p := range s.ports {
		if p.assigned != nil && p.holder() == ship {
			return i
		}
	}
	return -1
}

// release frees the port held by ship
func (s *Station) release(ship *Ship) {
	if port := s.portHeldBy(ship); port >= 0 {
		s.ports[port].assigned = nil
	}
}

// portPosition returns a port's final waypoint in the station's frame
func (s *Station) portPosition(port int) r3.Vec {
	return r3.Add(s.orient.Apply(s.ports[port].final.Position), s.pos)
}

// captureArrivals docks every cleared vehicle hovering at its final waypoint
func (s *Station) captureArrivals() {
	for i, p := range s.ports {
		if p.assigned == nil {
			continue
		}
		ship := p.holder()
		if ship == nil {
			continue
		}
		if ship.FlightState() != navigation.FlightStateFlying {
			continue
		}
		offset := r3.Sub(ship.PositionRelTo(s.frame), s.portPosition(i))
		relvel := r3.Sub(ship.VelocityRelTo(s.frame), s.vel)
		if r3.Norm(offset) < captureDistance && r3.Norm(relvel) < captureSpeed {
			ship.dockAt(s)
		}
	}
}

func perpendicular(v r3.Vec) r3.Vec {
	if math.Abs(v.X) < 0.9*r3.Norm(v) {
		return r3.Cross(v, r3.Vec{X: 1})
	}
	return r3.Cross(v, r3.Vec{Y: 1})
}
