package sandbox

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

type stepper interface {
	hulled
	step(dt float64)
}

// World owns every frame and body of a simulation and resolves them to
// stable indices. Bodies and frames are numbered in insertion order.
//
// Step order: frames move, stations spin, ships integrate and change frame,
// then stations capture arrivals.
type World struct {
	root     *Frame
	frames   []*Frame
	bodies   []navigation.Body
	ships    []stepper
	stations []*Station
	timestep float64
	elapsed  float64
}

// NewWorld creates a world whose root frame spans rootRadius. timestep is
// the tick length ships assume until the first Step.
func NewWorld(rootRadius, timestep float64) *World {
	root := NewRootFrame("root", rootRadius)
	return &World{root: root, frames: []*Frame{root}, timestep: timestep}
}

func (w *World) Root() *Frame      { return w.root }
func (w *World) Elapsed() float64  { return w.elapsed }
func (w *World) Timestep() float64 { return w.timestep }

// AddFrame registers an empty non-rotating frame
func (w *World) AddFrame(label string, parent *Frame, pos r3.Vec, radius float64) *Frame {
	f := NewFrame(label, parent, pos, r3.Vec{}, radius)
	w.frames = append(w.frames, f)
	return f
}

// AddPlanet registers a planet with its frames; a nil parent means the root
func (w *World) AddPlanet(spec PlanetSpec, parent *Frame) *Planet {
	if parent == nil {
		parent = w.root
	}
	p := newPlanet(spec, parent)
	w.frames = append(w.frames, p.frame)
	if p.rotFrame != nil {
		w.frames = append(w.frames, p.rotFrame)
	}
	w.bodies = append(w.bodies, p)
	return p
}

// AddStation registers a station in frame; a nil frame means the root
func (w *World) AddStation(spec StationSpec, frame *Frame) *Station {
	if frame == nil {
		frame = w.root
	}
	s := newStation(spec, frame)
	w.stations = append(w.stations, s)
	w.bodies = append(w.bodies, s)
	return s
}

// AddShip registers a ship in frame; a nil frame means the root
func (w *World) AddShip(spec ShipSpec, frame *Frame) (*Ship, error) {
	if frame == nil {
		frame = w.root
	}
	s, err := newShip(spec, frame, w.timestep)
	if err != nil {
		return nil, err
	}
	w.ships = append(w.ships, s)
	w.bodies = append(w.bodies, s)
	return s, nil
}

// AddTransitShip registers a ship fitted with a transit drive
func (w *World) AddTransitShip(spec ShipSpec, drive TransitSpec, frame *Frame) (*TransitShip, error) {
	if frame == nil {
		frame = w.root
	}
	s, err := newShip(spec, frame, w.timestep)
	if err != nil {
		return nil, err
	}
	t := &TransitShip{Ship: s, drive: drive, state: navigation.TransitDriveOff}
	w.ships = append(w.ships, t)
	w.bodies = append(w.bodies, t)
	return t, nil
}

// Step advances the world by dt seconds
func (w *World) Step(dt float64) error {
	if dt <= 0 {
		return shared.NewValidationError("timestep", "must be positive")
	}
	w.timestep = dt

	for _, f := range w.frames {
		f.advance(dt)
	}
	for _, s := range w.stations {
		s.spin(dt)
	}
	for _, s := range w.ships {
		s.step(dt)
		w.reframe(s.hull())
	}
	for _, s := range w.stations {
		s.captureArrivals()
	}
	w.elapsed += dt
	return nil
}

// reframe moves a flying ship into the innermost non-rotating frame that
// contains it
func (w *World) reframe(s *Ship) {
	if s.dead || s.FlightState() != navigation.FlightStateFlying {
		return
	}
	abs, _ := s.absolute()
	best := w.root
	for _, f := range w.frames {
		if f.IsRotating() || f.depth <= best.depth {
			continue
		}
		if f.contains(abs) && w.encloses(f, abs) {
			best = f
		}
	}
	s.moveTo(best)
}

// encloses checks that every ancestor of f also contains abs
func (w *World) encloses(f *Frame, abs r3.Vec) bool {
	for p := f.parent; p != nil && p.parent != nil; p = p.parent {
		if !p.contains(abs) {
			return false
		}
	}
	return true
}

func (w *World) IndexForBody(b navigation.Body) int {
	for i, candidate := range w.bodies {
		if candidate == b {
			return i
		}
	}
	return -1
}

func (w *World) BodyByIndex(index int) navigation.Body {
	if index < 0 || index >= len(w.bodies) {
		return nil
	}
	return w.bodies[index]
}

func (w *World) IndexForFrame(f navigation.Frame) int {
	for i, candidate := range w.frames {
		if navigation.Frame(candidate) == f {
			return i
		}
	}
	return -1
}

func (w *World) FrameByIndex(index int) navigation.Frame {
	if index < 0 || index >= len(w.frames) {
		return nil
	}
	return w.frames[index]
}

// Bodies returns every registered body in index order
func (w *World) Bodies() []navigation.Body {
	out := make([]navigation.Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}
