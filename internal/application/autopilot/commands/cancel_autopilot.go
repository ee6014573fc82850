package commands

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
)

// CancelAutopilotCommand discards the vehicle's active command
type CancelAutopilotCommand struct {
	VehicleIndex int
}

// CancelAutopilotResponse represents the result of cancelling the autopilot
type CancelAutopilotResponse struct {
	VehicleIndex int
}

// CancelAutopilotHandler handles the CancelAutopilot command
type CancelAutopilotHandler struct {
	controller *appAutopilot.Controller
}

// NewCancelAutopilotHandler creates a new CancelAutopilotHandler
func NewCancelAutopilotHandler(controller *appAutopilot.Controller) *CancelAutopilotHandler {
	return &CancelAutopilotHandler{controller: controller}
}

// Handle executes the CancelAutopilot command
func (h *CancelAutopilotHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*CancelAutopilotCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CancelAutopilotCommand")
	}

	if err := h.controller.Cancel(ctx, cmd.VehicleIndex); err != nil {
		return nil, err
	}

	return &CancelAutopilotResponse{VehicleIndex: cmd.VehicleIndex}, nil
}
