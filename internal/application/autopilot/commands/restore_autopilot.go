package commands

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
)

// RestoreAutopilotCommand reinstalls a saved command chain on its vehicle
type RestoreAutopilotCommand struct {
	VehicleIndex int
}

// RestoreAutopilotResponse represents the result of restoring a slot
type RestoreAutopilotResponse struct {
	CommandID string
	Kind      domainAutopilot.Kind
	Depth     int
}

// RestoreAutopilotHandler handles the RestoreAutopilot command
type RestoreAutopilotHandler struct {
	controller *appAutopilot.Controller
	repo       domainAutopilot.Repository
}

// NewRestoreAutopilotHandler creates a new RestoreAutopilotHandler
func NewRestoreAutopilotHandler(controller *appAutopilot.Controller, repo domainAutopilot.Repository) *RestoreAutopilotHandler {
	return &RestoreAutopilotHandler{
		controller: controller,
		repo:       repo,
	}
}

// Handle executes the RestoreAutopilot command
func (h *RestoreAutopilotHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RestoreAutopilotCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RestoreAutopilotCommand")
	}

	saved, err := h.repo.FindByVehicle(ctx, cmd.VehicleIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved command: %w", err)
	}

	command, err := domainAutopilot.Restore(saved.Snapshot, h.controller.BodyIndex(), h.controller.Tuning())
	if err != nil {
		return nil, fmt.Errorf("failed to restore command: %w", err)
	}

	if _, err := h.controller.Adopt(ctx, saved, command); err != nil {
		return nil, fmt.Errorf("failed to install restored command: %w", err)
	}

	return &RestoreAutopilotResponse{
		CommandID: command.ID(),
		Kind:      command.Kind(),
		Depth:     domainAutopilot.Depth(command),
	}, nil
}
