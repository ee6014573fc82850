package autopilot

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// CommandSpec describes a top-level command by indices, so requests can be
// built without holding live body references
type CommandSpec struct {
	Kind domainAutopilot.Kind

	// TargetIndex is the FlyTo target, Dock station, Kamikaze target,
	// Formation leader, or FlyAround/TransitAround obstructor
	TargetIndex int

	// FrameIndex selects a FlyTo frame target when TargetIndex is NoIndex
	FrameIndex int

	// Offset is the FlyTo frame offset or the Formation offset
	Offset        r3.Vec
	TerminalSpeed float64
	Standoff      *float64

	// FlyAround parameters; Altitude is a multiple of the avoidance envelope
	// when RelativeAltitude is set
	Altitude         float64
	RelativeAltitude bool
	Speed            float64
	Mode             domainAutopilot.FlyAroundMode

	// TargetPosition is the FlyAround/TransitAround destination in the vehicle's frame
	TargetPosition r3.Vec
}

// BuildCommand resolves the spec's references and constructs the command for v
func BuildCommand(spec CommandSpec, v navigation.Vehicle, index navigation.BodyIndex, tuning *domainAutopilot.Tuning) (domainAutopilot.Command, error) {
	kind := string(spec.Kind)

	body := func() (navigation.Body, error) {
		b := index.BodyByIndex(spec.TargetIndex)
		if b == nil {
			return nil, shared.NewInvalidCommandError(kind, fmt.Sprintf("target index %d does not resolve", spec.TargetIndex))
		}
		return b, nil
	}

	switch spec.Kind {
	case domainAutopilot.KindFlyTo:
		if spec.TargetIndex == domainAutopilot.NoIndex {
			frame := index.FrameByIndex(spec.FrameIndex)
			if frame == nil {
				return nil, shared.NewInvalidCommandError(kind, fmt.Sprintf("frame index %d does not resolve", spec.FrameIndex))
			}
			return asCommand(domainAutopilot.NewFlyToFrame(v, frame, spec.Offset, spec.TerminalSpeed, tuning))
		}
		target, err := body()
		if err != nil {
			return nil, err
		}
		var opts []domainAutopilot.FlyToOption
		if spec.Standoff != nil {
			opts = append(opts, domainAutopilot.WithStandoff(*spec.Standoff))
		}
		return asCommand(domainAutopilot.NewFlyToBody(v, target, tuning, opts...))

	case domainAutopilot.KindFlyAround:
		obstructor, err := body()
		if err != nil {
			return nil, err
		}
		var fa *domainAutopilot.FlyAround
		if spec.RelativeAltitude {
			fa, err = domainAutopilot.NewFlyAroundRelative(v, obstructor, spec.Altitude, spec.Mode, tuning)
		} else {
			fa, err = domainAutopilot.NewFlyAround(v, obstructor, spec.Altitude, spec.Speed, spec.Mode, tuning)
		}
		if err != nil {
			return nil, err
		}
		fa.SetTargetPosition(spec.TargetPosition)
		return fa, nil

	case domainAutopilot.KindDock:
		target, err := body()
		if err != nil {
			return nil, err
		}
		station, ok := target.(navigation.Station)
		if !ok {
			return nil, shared.NewInvalidCommandError(kind, fmt.Sprintf("body %s is not a station", target.Label()))
		}
		return asCommand(domainAutopilot.NewDock(v, station, tuning))

	case domainAutopilot.KindKamikaze:
		target, err := body()
		if err != nil {
			return nil, err
		}
		return asCommand(domainAutopilot.NewKamikaze(v, target, tuning))

	case domainAutopilot.KindHoldPosition:
		return asCommand(domainAutopilot.NewHoldPosition(v, tuning))

	case domainAutopilot.KindFormation:
		target, err := body()
		if err != nil {
			return nil, err
		}
		leader, ok := target.(navigation.Vehicle)
		if !ok {
			return nil, shared.NewInvalidCommandError(kind, fmt.Sprintf("body %s is not a vehicle", target.Label()))
		}
		return asCommand(domainAutopilot.NewFormation(v, leader, spec.Offset, tuning))

	case domainAutopilot.KindTransitAround:
		obstructor, err := body()
		if err != nil {
			return nil, err
		}
		ta, err := domainAutopilot.NewTransitAround(v, obstructor, tuning)
		if err != nil {
			return nil, err
		}
		ta.SetTargetPosition(spec.TargetPosition)
		return ta, nil
	}

	return nil, shared.NewInvalidCommandError(kind, "unknown command kind")
}

// asCommand keeps a failed constructor from leaking a typed nil
func asCommand[C domainAutopilot.Command](cmd C, err error) (domainAutopilot.Command, error) {
	if err != nil {
		return nil, err
	}
	return cmd, nil
}
