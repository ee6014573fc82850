package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
)

// ListSavedCommandsQuery lists every persisted slot
type ListSavedCommandsQuery struct{}

// ListSavedCommandsResponse represents the persisted slots
type ListSavedCommandsResponse struct {
	Saved []*domainAutopilot.SavedCommand
}

// ListSavedCommandsHandler handles the ListSavedCommands query
type ListSavedCommandsHandler struct {
	repo domainAutopilot.Repository
}

// NewListSavedCommandsHandler creates a new ListSavedCommandsHandler
func NewListSavedCommandsHandler(repo domainAutopilot.Repository) *ListSavedCommandsHandler {
	return &ListSavedCommandsHandler{repo: repo}
}

// Handle executes the ListSavedCommands query
func (h *ListSavedCommandsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	if _, ok := request.(*ListSavedCommandsQuery); !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListSavedCommandsQuery")
	}

	saved, err := h.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved commands: %w", err)
	}
	return &ListSavedCommandsResponse{Saved: saved}, nil
}
