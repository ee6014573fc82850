package autopilot

import (
	"context"
	"time"

	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// SavedCommand is the persisted autopilot slot of one vehicle
type SavedCommand struct {
	VehicleIndex int
	CommandID    string
	Kind         Kind
	Status       shared.LifecycleStatus
	AIMessage    navigation.AIMessage
	Snapshot     *Snapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
}

// Repository persists autopilot slots keyed by vehicle index
type Repository interface {
	// Save inserts or replaces the slot for the vehicle
	Save(ctx context.Context, saved *SavedCommand) error

	// FindByVehicle returns shared.NoActiveCommandError when nothing is stored
	FindByVehicle(ctx context.Context, vehicleIndex int) (*SavedCommand, error)

	ListAll(ctx context.Context) ([]*SavedCommand, error)
	Delete(ctx context.Context, vehicleIndex int) error
}
