package commands

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
)

// EngageAutopilotCommand builds a command from Spec and installs it on the vehicle
type EngageAutopilotCommand struct {
	VehicleIndex int
	Spec         appAutopilot.CommandSpec
}

// EngageAutopilotResponse represents the result of engaging the autopilot
type EngageAutopilotResponse struct {
	CommandID string
	Kind      domainAutopilot.Kind

	// AIMessage is set when construction already gave up, e.g. a Dock
	// against gravity the vehicle cannot counter
	AIMessage navigation.AIMessage
}

// EngageAutopilotHandler handles the EngageAutopilot command
type EngageAutopilotHandler struct {
	controller *appAutopilot.Controller
}

// NewEngageAutopilotHandler creates a new EngageAutopilotHandler
func NewEngageAutopilotHandler(controller *appAutopilot.Controller) *EngageAutopilotHandler {
	return &EngageAutopilotHandler{controller: controller}
}

// Handle executes the EngageAutopilot command
func (h *EngageAutopilotHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*EngageAutopilotCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *EngageAutopilotCommand")
	}

	vehicle, err := h.controller.Vehicle(cmd.VehicleIndex)
	if err != nil {
		return nil, err
	}

	command, err := appAutopilot.BuildCommand(cmd.Spec, vehicle, h.controller.BodyIndex(), h.controller.Tuning())
	if err != nil {
		return nil, fmt.Errorf("failed to build %s command: %w", cmd.Spec.Kind, err)
	}

	if _, err := h.controller.Engage(ctx, cmd.VehicleIndex, command); err != nil {
		return nil, fmt.Errorf("failed to engage autopilot: %w", err)
	}

	return &EngageAutopilotResponse{
		CommandID: command.ID(),
		Kind:      command.Kind(),
		AIMessage: vehicle.AIMessage(),
	}, nil
}
