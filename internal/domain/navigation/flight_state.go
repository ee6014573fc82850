package navigation

import (
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// FlightState is the coarse control regime a vehicle is in
type FlightState string

const (
	FlightStateFlying     FlightState = "FLYING"
	FlightStateDocking    FlightState = "DOCKING"
	FlightStateDocked     FlightState = "DOCKED"
	FlightStateLanded     FlightState = "LANDED"
	FlightStateJumping    FlightState = "JUMPING"
	FlightStateHyperspace FlightState = "HYPERSPACE"
)

var validFlightStates = map[FlightState]bool{
	FlightStateFlying:     true,
	FlightStateDocking:    true,
	FlightStateDocked:     true,
	FlightStateLanded:     true,
	FlightStateJumping:    true,
	FlightStateHyperspace: true,
}

// IsValid reports whether s is one of the known flight states
func (s FlightState) IsValid() bool {
	return validFlightStates[s]
}

// allowedTransitions lists every edge of the flight state machine
var allowedTransitions = map[FlightState][]FlightState{
	FlightStateFlying:     {FlightStateJumping, FlightStateDocking, FlightStateDocked, FlightStateLanded},
	FlightStateJumping:    {FlightStateHyperspace, FlightStateFlying},
	FlightStateHyperspace: {FlightStateFlying},
	FlightStateDocking:    {FlightStateDocked, FlightStateFlying},
	FlightStateDocked:     {FlightStateFlying},
	FlightStateLanded:     {FlightStateFlying},
}

// FlightStateMachine guards the vehicle's flight regime.
//
// Invariants:
// - Autopilot commands only actuate while FLYING
// - JUMPING suspends commands without actuation
// - DOCKED and LANDED require a launch before any command can act
//
// State machine:
// - FLYING -> BeginJump() -> JUMPING -> EnterHyperspace() -> HYPERSPACE -> Arrive() -> FLYING
// - JUMPING -> AbortJump() -> FLYING
// - FLYING -> BeginDocking() -> DOCKING -> CompleteDocking() -> DOCKED
// - FLYING -> CompleteDocking() -> DOCKED (station takes control directly)
// - DOCKED -> Undock() -> FLYING
// - FLYING -> TouchDown() -> LANDED -> Blastoff() -> FLYING
type FlightStateMachine struct {
	state FlightState
}

// NewFlightStateMachine creates a state machine in the given initial state
func NewFlightStateMachine(initial FlightState) (*FlightStateMachine, error) {
	if !initial.IsValid() {
		return nil, shared.NewValidationError("flight_state", "unknown flight state "+string(initial))
	}
	return &FlightStateMachine{state: initial}, nil
}

// State returns the current flight state
func (m *FlightStateMachine) State() FlightState {
	return m.state
}

func (m *FlightStateMachine) transition(to FlightState) error {
	for _, next := range allowedTransitions[m.state] {
		if next == to {
			m.state = to
			return nil
		}
	}
	return shared.NewInvalidFlightStateError(string(m.state), string(to))
}

// BeginJump starts the hyperspace countdown
func (m *FlightStateMachine) BeginJump() error {
	return m.transition(FlightStateJumping)
}

// AbortJump cancels a pending jump
func (m *FlightStateMachine) AbortJump() error {
	if m.state != FlightStateJumping {
		return shared.NewInvalidFlightStateError(string(m.state), string(FlightStateFlying))
	}
	return m.transition(FlightStateFlying)
}

// EnterHyperspace is called once the jump countdown has elapsed
func (m *FlightStateMachine) EnterHyperspace() error {
	return m.transition(FlightStateHyperspace)
}

// Arrive leaves hyperspace at the destination
func (m *FlightStateMachine) Arrive() error {
	if m.state != FlightStateHyperspace {
		return shared.NewInvalidFlightStateError(string(m.state), string(FlightStateFlying))
	}
	return m.transition(FlightStateFlying)
}

// BeginDocking hands the vehicle to a station's docking sequence
func (m *FlightStateMachine) BeginDocking() error {
	return m.transition(FlightStateDocking)
}

// CompleteDocking finalises the dock
func (m *FlightStateMachine) CompleteDocking() error {
	return m.transition(FlightStateDocked)
}

// Undock releases a docked vehicle back to flight
func (m *FlightStateMachine) Undock() error {
	if m.state != FlightStateDocked && m.state != FlightStateDocking {
		return shared.NewInvalidFlightStateError(string(m.state), string(FlightStateFlying))
	}
	return m.transition(FlightStateFlying)
}

// TouchDown records a landing on a surface
func (m *FlightStateMachine) TouchDown() error {
	return m.transition(FlightStateLanded)
}

// Blastoff lifts a landed vehicle back to flight
func (m *FlightStateMachine) Blastoff() error {
	if m.state != FlightStateLanded {
		return shared.NewInvalidFlightStateError(string(m.state), string(FlightStateFlying))
	}
	return m.transition(FlightStateFlying)
}

// IsFlying returns true if commands may actuate
func (m *FlightStateMachine) IsFlying() bool {
	return m.state == FlightStateFlying
}

// ShouldSuspend returns true if commands must wait without actuating
func ShouldSuspend(state FlightState) bool {
	return state == FlightStateJumping
}

// NeedsLaunch returns true if the vehicle has to launch before a command can act
func NeedsLaunch(state FlightState) bool {
	return state == FlightStateDocked || state == FlightStateLanded
}
