package navigation

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is a node of the reference-frame tree. Positions, velocities and
// orientations of bodies are expressed relative to a frame.
type Frame interface {
	Label() string

	// Parent returns nil for the root frame
	Parent() Frame

	// NonRotating returns the frame itself, or the non-rotating frame a
	// rotating frame is attached to
	NonRotating() Frame
	IsRotating() bool

	// Radius bounds the frame's region of influence
	Radius() float64

	// Body returns the body at the frame origin, or nil
	Body() Body

	AngularVelocity() r3.Vec

	// StasisVelocity returns pos × ω: the negated velocity a point fixed at
	// pos in this rotating frame has relative to its non-rotating parent,
	// expressed in this frame
	StasisVelocity(pos r3.Vec) r3.Vec

	PositionRelTo(other Frame) r3.Vec
	VelocityRelTo(other Frame) r3.Vec
	OrientRelTo(other Frame) Orientation
}

// Body is anything with kinematic state: planets, stations, vehicles
type Body interface {
	Label() string
	Frame() Frame

	// Position, Velocity and Orient are relative to Frame()
	Position() r3.Vec
	Velocity() r3.Vec
	Orient() Orientation
	AngularVelocity() r3.Vec

	PositionRelTo(f Frame) r3.Vec
	VelocityRelTo(f Frame) r3.Vec
	OrientRelTo(f Frame) Orientation

	Mass() float64
	PhysRadius() float64
	IsDead() bool
}

// TerrainBody is a planet or moon with surface relief
type TerrainBody interface {
	Body
	MaxFeatureRadius() float64
}

// DockMethod selects the docking choreography a station uses
type DockMethod string

const (
	DockMethodOrbital DockMethod = "ORBITAL"
	DockMethodSurface DockMethod = "SURFACE"
)

// DockingPose is an approach waypoint in station-local coordinates
type DockingPose struct {
	Position r3.Vec
	XAxis    r3.Vec
	YAxis    r3.Vec
	ZAxis    r3.Vec
}

// Station owns docking ports and hands out approach waypoints
type Station interface {
	Body
	IsGroundStation() bool
	DockMethod() DockMethod
	ParkingDistance() float64

	// DockingPortFor returns the port assigned to v, or -1
	DockingPortFor(v Vehicle) int

	// RequestDockingClearance asks for a port; false means refused
	RequestDockingClearance(v Vehicle) bool

	// ApproachWaypoint returns the pose for a port at stage 1 (approach) or 2 (final)
	ApproachWaypoint(port, stage int) (DockingPose, bool)
}

// Vehicle is the thrust actuation contract autopilot commands drive.
// All vectors are in the vehicle's own frame unless noted otherwise.
type Vehicle interface {
	Body

	FlightState() FlightState

	// Launch undocks or blasts off depending on the flight state
	Launch()

	// SetWheelState lowers or raises the landing gear; only honoured while flying
	SetWheelState(down bool) bool

	// WheelState is the gear extension in [0,1]
	WheelState() float64

	AccelFwd() float64
	AccelRev() float64
	AccelUp() float64

	// AccelMin is the weakest of the up, left and right accelerations
	AccelMin() float64

	// MatchVelocity thrusts toward an absolute frame velocity; returns true
	// once the remaining difference can be covered this tick
	MatchVelocity(v r3.Vec) bool

	// ChangeVelocityBy applies a velocity delta with each axis clamped independently
	ChangeVelocityBy(dv r3.Vec)

	// ChangeVelocityDir applies a velocity delta preserving its direction
	ChangeVelocityDir(dv r3.Vec)

	// MatchAngularVelocity targets an angular velocity in object space
	MatchAngularVelocity(av r3.Vec)

	// FaceDirection turns the nose toward dir accounting for a frame angular
	// speed av; returns the remaining angle in radians
	FaceDirection(dir r3.Vec, av float64) float64

	// FaceUp rolls the up axis toward up; returns the remaining angle in radians
	FaceUp(up r3.Vec, av float64) float64

	// Thruster levels are per object axis in [-1,1]
	SetThrusterLevels(levels r3.Vec)
	ThrusterLevels() r3.Vec
	ClearThrusters()

	SetDecelerating(decel bool)
	IsDecelerating() bool

	// LastAcceleration is the thrust acceleration applied on the previous tick
	LastAcceleration() r3.Vec

	SetVelocity(v r3.Vec)

	// HullBottom is the lowest hull point on the object Y axis (negative)
	HullBottom() float64

	AIMessage() AIMessage
	SwapAIMessage(next AIMessage) AIMessage
}

// TransitDriveState is the stage of the faster-than-thrust transit drive
type TransitDriveState string

const (
	TransitDriveOff      TransitDriveState = "OFF"
	TransitDriveReady    TransitDriveState = "READY"
	TransitDriveStart    TransitDriveState = "START"
	TransitDriveOn       TransitDriveState = "ON"
	TransitDriveStop     TransitDriveState = "STOP"
	TransitDriveFinished TransitDriveState = "FINISHED"
)

// TransitCapable is implemented by vehicles fitted with a transit drive
type TransitCapable interface {
	TransitDriveState() TransitDriveState
	SetTransitDriveState(state TransitDriveState)

	// EngageTransitDrive spools the drive up from OFF or READY
	EngageTransitDrive()

	// HullTemperature is normalised to [0,1]
	HullTemperature() float64
}

// BodyIndex resolves bodies and frames to stable indices for persistence
type BodyIndex interface {
	IndexForBody(b Body) int
	BodyByIndex(index int) Body
	IndexForFrame(f Frame) int
	FrameByIndex(index int) Frame
}
