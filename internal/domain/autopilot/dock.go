package autopilot

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/andrescamacho/autopilot-go/internal/domain/geometry"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// DockStage is the progress of a docking approach. Stages only move forward.
type DockStage int

const (
	DockStageGetDataStart DockStage = iota
	DockStageFlyToStart
	DockStageGetDataEnd
	DockStageFlyToEnd
	DockStageDockingComplete
	DockStageHandedOff
)

var dockStageNames = map[DockStage]string{
	DockStageGetDataStart:    "GET_DATA_START",
	DockStageFlyToStart:      "FLY_TO_START",
	DockStageGetDataEnd:      "GET_DATA_END",
	DockStageFlyToEnd:        "FLY_TO_END",
	DockStageDockingComplete: "DOCKING_COMPLETE",
	DockStageHandedOff:       "HANDED_OFF",
}

func (s DockStage) String() string {
	if name, ok := dockStageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// alignment below which the closing manoeuvre advances a stage
const dockAlignment = 0.01

// Dock flies to a station, obtains clearance and closes on its docking
// port through two approach waypoints. Docking itself is detected by the
// station, which changes the vehicle's flight state.
type Dock struct {
	base

	target    navigation.Station
	stage     DockStage
	dockpos   r3.Vec
	dockdir   r3.Vec
	dockupdir r3.Vec
}

// NewDock creates a Dock toward station. A vehicle too weak to hover against
// the station's local gravity gets GRAVITY_TOO_HIGH and a command that
// finishes on its first tick.
func NewDock(v navigation.Vehicle, station navigation.Station, tuning *Tuning) (*Dock, error) {
	if v == nil || station == nil {
		return nil, shared.NewInvalidCommandError(string(KindDock), "vehicle and station are required")
	}
	d := &Dock{
		base:   newBase(KindDock, v, tuning),
		target: station,
	}
	if v.AccelUp() < geometry.GravityAt(station.Frame(), station.Position()) {
		v.SwapAIMessage(navigation.AIMessageGravityTooHigh)
		d.target = nil
	}
	return d, nil
}

// Target returns the station, or nil once the command has bailed out
func (d *Dock) Target() navigation.Station { return d.target }

// Stage returns the current approach stage
func (d *Dock) Stage() DockStage { return d.stage }

func (d *Dock) advanceStage() {
	if d.stage < DockStageHandedOff {
		d.stage++
	}
}

// Advance runs one tick of the docking approach
func (d *Dock) Advance(t *Tick) Status {
	v := d.vehicle
	if d.suspended() {
		return StatusContinue
	}
	if !d.processChild(t) {
		return StatusContinue
	}
	if d.target == nil || d.target.IsDead() {
		return StatusDone
	}
	if d.stage == DockStageFlyToStart {
		d.advanceStage()
	}
	if v.FlightState() != navigation.FlightStateFlying {
		v.ClearThrusters()
		return StatusDone
	}

	if r3.Norm(geometry.RelativePosition(d.target, v)) > d.tuning.DockApproachRange {
		d.setChild(t, newFlyToBody(v, d.target, d.tuning))
		d.processChild(t)
		return StatusContinue
	}

	port := d.target.DockingPortFor(v)
	if port < 0 {
		cleared := d.target.RequestDockingClearance(v)
		port = d.target.DockingPortFor(v)
		if !cleared || port < 0 {
			v.SwapAIMessage(navigation.AIMessagePermissionRefused)
			return StatusDone
		}
	}

	if d.stage == DockStageGetDataStart || d.stage == DockStageGetDataEnd || d.stage == DockStageDockingComplete {
		d.loadWaypoint(port)
	}

	if d.stage == DockStageFlyToStart {
		d.setChild(t, newFlyToFrame(v, d.target.Frame(), d.dockpos, 0, false, d.tuning))
		d.processChild(t)
		return StatusContinue
	}

	d.close(t)
	return StatusContinue
}

// loadWaypoint reads the approach pose for the current data stage and
// moves to the following stage. The end-stage read keeps the start position
// and refreshes only the axes.
func (d *Dock) loadWaypoint(port int) {
	waypoint := 2
	if d.stage == DockStageGetDataStart {
		waypoint = 1
	}
	pose, _ := d.target.ApproachWaypoint(port, waypoint)

	if d.stage != DockStageGetDataEnd {
		d.dockpos = pose.Position
	}
	d.dockdir = geometry.UnitSafe(pose.ZAxis)
	d.dockupdir = geometry.UnitSafe(pose.YAxis)

	if d.target.DockMethod() == navigation.DockMethodOrbital {
		d.dockupdir = r3.Scale(-1, d.dockupdir)
	} else if d.stage == DockStageDockingComplete {
		d.dockpos = r3.Sub(d.dockpos, r3.Scale(d.vehicle.HullBottom()+1, d.dockupdir))
	}

	if d.stage != DockStageGetDataEnd {
		d.dockpos = r3.Add(d.target.Orient().Apply(d.dockpos), d.target.Position())
	}
	d.advanceStage()
}

// close drives the vehicle onto the current waypoint with the gear down,
// matching the station's rotation
func (d *Dock) close(t *Tick) {
	v := d.vehicle
	v.SetWheelState(true)

	targpos := geometry.PosInFrame(v.Frame(), d.target.Frame(), d.dockpos)
	relpos := r3.Sub(targpos, v.Position())
	reldir := geometry.UnitSafe(relpos)
	relvel := r3.Scale(-1, geometry.RelativeVelocity(d.target, v))

	maxdecel := v.AccelUp() - geometry.GravityAt(d.target.Frame(), d.dockpos)
	ispeed := geometry.InterceptSpeed(r3.Norm(relpos), 0, maxdecel, t.Timestep)
	vdiff := r3.Sub(r3.Scale(ispeed, reldir), relvel)
	v.ChangeVelocityDir(vdiff)
	if r3.Dot(vdiff, reldir) < 0 {
		v.SetDecelerating(true)
	}

	// station attitude one tick ahead
	trot := d.target.OrientRelTo(v.Frame())
	av := r3.Norm(d.target.AngularVelocity())
	ang := av * t.Timestep
	if ang > 1e-16 {
		trot = trot.Mul(navigation.RotationAbout(r3.Unit(d.target.AngularVelocity()), ang))
	}

	var af float64
	if d.target.DockMethod() == navigation.DockMethodOrbital {
		af = v.FaceDirection(trot.Apply(d.dockdir), 0)
	} else {
		af = v.FaceDirection(r3.Cross(v.Position(), v.Orient().X), 0)
	}
	if af < dockAlignment {
		af = v.FaceUp(trot.Apply(d.dockupdir), av) - ang
	}
	if d.stage < DockStageHandedOff && af < dockAlignment && v.WheelState() >= 1 {
		d.advanceStage()
	}
}
