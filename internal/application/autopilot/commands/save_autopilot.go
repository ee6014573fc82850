package commands

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/common"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// SaveAutopilotCommand persists the vehicle's active command chain
type SaveAutopilotCommand struct {
	VehicleIndex int
}

// SaveAutopilotResponse represents the result of saving a slot
type SaveAutopilotResponse struct {
	Saved *domainAutopilot.SavedCommand
}

// SaveAutopilotHandler handles the SaveAutopilot command
type SaveAutopilotHandler struct {
	controller *appAutopilot.Controller
	repo       domainAutopilot.Repository
}

// NewSaveAutopilotHandler creates a new SaveAutopilotHandler
func NewSaveAutopilotHandler(controller *appAutopilot.Controller, repo domainAutopilot.Repository) *SaveAutopilotHandler {
	return &SaveAutopilotHandler{
		controller: controller,
		repo:       repo,
	}
}

// Handle executes the SaveAutopilot command
func (h *SaveAutopilotHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SaveAutopilotCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SaveAutopilotCommand")
	}

	slot, found := h.controller.Slot(cmd.VehicleIndex)
	if !found || slot.Command == nil {
		return nil, shared.NewNoActiveCommandError(cmd.VehicleIndex)
	}

	snapshot, err := domainAutopilot.Capture(slot.Command, h.controller.BodyIndex())
	if err != nil {
		return nil, fmt.Errorf("failed to capture command: %w", err)
	}

	saved := &domainAutopilot.SavedCommand{
		VehicleIndex: cmd.VehicleIndex,
		CommandID:    slot.Command.ID(),
		Kind:         slot.Command.Kind(),
		Status:       slot.Lifecycle.Status(),
		AIMessage:    slot.Vehicle.AIMessage(),
		Snapshot:     snapshot,
		CreatedAt:    slot.Lifecycle.CreatedAt(),
		UpdatedAt:    slot.Lifecycle.UpdatedAt(),
		StartedAt:    slot.Lifecycle.StartedAt(),
	}
	if err := h.repo.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save command: %w", err)
	}

	common.LoggerFromContext(ctx).Log("INFO", "Autopilot command saved", map[string]interface{}{
		"action":        "save",
		"vehicle_index": cmd.VehicleIndex,
		"kind":          string(saved.Kind),
		"depth":         snapshot.Depth(),
	})

	return &SaveAutopilotResponse{Saved: saved}, nil
}
