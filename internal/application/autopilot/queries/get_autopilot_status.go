package queries

import (
	"context"
	"fmt"

	appAutopilot "github.com/andrescamacho/autopilot-go/internal/application/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
)

// GetAutopilotStatusQuery reads a vehicle's slot
type GetAutopilotStatusQuery struct {
	VehicleIndex int
}

// GetAutopilotStatusResponse represents the slot status
type GetAutopilotStatusResponse struct {
	Status *appAutopilot.SlotStatus
}

// GetAutopilotStatusHandler handles the GetAutopilotStatus query
type GetAutopilotStatusHandler struct {
	controller *appAutopilot.Controller
}

// NewGetAutopilotStatusHandler creates a new GetAutopilotStatusHandler
func NewGetAutopilotStatusHandler(controller *appAutopilot.Controller) *GetAutopilotStatusHandler {
	return &GetAutopilotStatusHandler{controller: controller}
}

// Handle executes the GetAutopilotStatus query
func (h *GetAutopilotStatusHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetAutopilotStatusQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetAutopilotStatusQuery")
	}

	status, err := h.controller.Status(query.VehicleIndex)
	if err != nil {
		return nil, err
	}
	return &GetAutopilotStatusResponse{Status: status}, nil
}
