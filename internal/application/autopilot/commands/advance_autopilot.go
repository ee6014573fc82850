package commands

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
)

// AdvanceAutopilotCommand runs the controller for a number of fixed timesteps.
// Stepper, when set, advances the world between ticks.
type AdvanceAutopilotCommand struct {
	Timestep float64
	Ticks    int
	Stepper  func(dt float64) error

	// StopWhenIdle ends the run early once no command is active
	StopWhenIdle bool
}

// AdvanceAutopilotResponse represents the result of a run
type AdvanceAutopilotResponse struct {
	TicksRun       int
	ActiveVehicles []int
}

// AdvanceAutopilotHandler handles the AdvanceAutopilot command
type AdvanceAutopilotHandler struct {
	controller *appAutopilot.Controller
}

// NewAdvanceAutopilotHandler creates a new AdvanceAutopilotHandler
func NewAdvanceAutopilotHandler(controller *appAutopilot.Controller) *AdvanceAutopilotHandler {
	return &AdvanceAutopilotHandler{controller: controller}
}

// Handle executes the AdvanceAutopilot command
func (h *AdvanceAutopilotHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*AdvanceAutopilotCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AdvanceAutopilotCommand")
	}
	if cmd.Ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive")
	}

	run := 0
	for run < cmd.Ticks {
		if cmd.StopWhenIdle && len(h.controller.ActiveVehicles()) == 0 {
			break
		}
		if err := h.controller.Tick(ctx, cmd.Timestep); err != nil {
			return nil, fmt.Errorf("tick %d failed: %w", run, err)
		}
		if cmd.Stepper != nil {
			if err := cmd.Stepper(cmd.Timestep); err != nil {
				return nil, fmt.Errorf("world step %d failed: %w", run, err)
			}
		}
		run++
	}

	return &AdvanceAutopilotResponse{
		TicksRun:       run,
		ActiveVehicles: h.controller.ActiveVehicles(),
	}, nil
}
