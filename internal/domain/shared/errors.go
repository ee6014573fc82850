package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Vehicle-related errors

type VehicleError struct {
	*DomainError
}

func NewVehicleError(message string) *VehicleError {
	return &VehicleError{DomainError: &DomainError{Message: message}}
}

type InvalidFlightStateError struct {
	*VehicleError
	From string
	To   string
}

func NewInvalidFlightStateError(from, to string) *InvalidFlightStateError {
	return &InvalidFlightStateError{
		VehicleError: NewVehicleError(fmt.Sprintf("invalid flight state transition: %s -> %s", from, to)),
		From:         from,
		To:           to,
	}
}

// Autopilot command errors

type CommandError struct {
	*DomainError
	Kind string
}

func NewCommandError(kind, message string) *CommandError {
	return &CommandError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s: %s", kind, message)},
		Kind:        kind,
	}
}

// InvalidCommandError is returned when a command cannot be constructed from its arguments
type InvalidCommandError struct {
	*CommandError
}

func NewInvalidCommandError(kind, message string) *InvalidCommandError {
	return &InvalidCommandError{CommandError: NewCommandError(kind, message)}
}

// SnapshotError is returned when a persisted command tree cannot be captured or restored
type SnapshotError struct {
	*CommandError
}

func NewSnapshotError(kind, message string) *SnapshotError {
	return &SnapshotError{CommandError: NewCommandError(kind, message)}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Autopilot slot errors

type AutopilotSlotError struct {
	*DomainError
	VehicleIndex int
}

func NewAutopilotSlotError(message string, vehicleIndex int) *AutopilotSlotError {
	return &AutopilotSlotError{
		DomainError:  &DomainError{Message: message},
		VehicleIndex: vehicleIndex,
	}
}

type NoActiveCommandError struct {
	*AutopilotSlotError
}

func NewNoActiveCommandError(vehicleIndex int) *NoActiveCommandError {
	return &NoActiveCommandError{
		AutopilotSlotError: NewAutopilotSlotError(
			fmt.Sprintf("vehicle %d has no active autopilot command", vehicleIndex),
			vehicleIndex,
		),
	}
}

type UnknownVehicleError struct {
	*AutopilotSlotError
}

func NewUnknownVehicleError(vehicleIndex int) *UnknownVehicleError {
	return &UnknownVehicleError{
		AutopilotSlotError: NewAutopilotSlotError(
			fmt.Sprintf("vehicle %d is not registered with the autopilot", vehicleIndex),
			vehicleIndex,
		),
	}
}
