package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"gorm.io/datatypes"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
	"github.com/andrescamacho/autopilot-go/test/helpers"
)

var epoch = time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

func savedFlyTo(vehicleIndex int, commandID string) *domainAutopilot.SavedCommand {
	started := epoch.Add(time.Second)
	return &domainAutopilot.SavedCommand{
		VehicleIndex: vehicleIndex,
		CommandID:    commandID,
		Kind:         domainAutopilot.KindFlyTo,
		Status:       shared.LifecycleStatusRunning,
		Snapshot: &domainAutopilot.Snapshot{
			ID:           commandID,
			Kind:         domainAutopilot.KindFlyTo,
			VehicleIndex: vehicleIndex,
			FlyTo: &domainAutopilot.FlyToSnapshot{
				TargetIndex:      domainAutopilot.NoIndex,
				TargetFrameIndex: 0,
				Offset:           r3.Vec{Z: -5000},
			},
			Child: &domainAutopilot.Snapshot{
				ID:           commandID + "-hold",
				Kind:         domainAutopilot.KindHoldPosition,
				VehicleIndex: vehicleIndex,
			},
		},
		CreatedAt: epoch,
		UpdatedAt: epoch.Add(2 * time.Second),
		StartedAt: &started,
	}
}

func TestAutopilotRepository_SaveAndFind(t *testing.T) {
	// Arrange
	repo := persistence.NewGormAutopilotRepository(helpers.NewTestDB(t))
	saved := savedFlyTo(1, "cmd-1")

	// Act
	err := repo.Save(context.Background(), saved)
	require.NoError(t, err)
	found, err := repo.FindByVehicle(context.Background(), 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, saved.CommandID, found.CommandID)
	assert.Equal(t, saved.Kind, found.Kind)
	assert.Equal(t, saved.Status, found.Status)
	assert.Equal(t, navigation.AIMessageNone, found.AIMessage)
	assert.Equal(t, saved.Snapshot, found.Snapshot)
	assert.Equal(t, 2, found.Snapshot.Depth())
	assert.True(t, saved.CreatedAt.Equal(found.CreatedAt))
	require.NotNil(t, found.StartedAt)
	assert.True(t, saved.StartedAt.Equal(*found.StartedAt))
}

func TestAutopilotRepository_SaveReplacesSlot(t *testing.T) {
	// Arrange
	repo := persistence.NewGormAutopilotRepository(helpers.NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, savedFlyTo(1, "cmd-1")))
	replacement := savedFlyTo(1, "cmd-2")
	replacement.AIMessage = navigation.AIMessagePermissionRefused

	// Act
	err := repo.Save(ctx, replacement)

	// Assert
	require.NoError(t, err)
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "cmd-2", all[0].CommandID)
	assert.Equal(t, navigation.AIMessagePermissionRefused, all[0].AIMessage)
}

func TestAutopilotRepository_ListAllOrdersByVehicle(t *testing.T) {
	// Arrange
	repo := persistence.NewGormAutopilotRepository(helpers.NewTestDB(t))
	ctx := context.Background()
	for _, vi := range []int{4, 1, 3} {
		require.NoError(t, repo.Save(ctx, savedFlyTo(vi, "cmd")))
	}

	// Act
	all, err := repo.ListAll(ctx)

	// Assert
	require.NoError(t, err)
	indices := make([]int, len(all))
	for i, s := range all {
		indices[i] = s.VehicleIndex
	}
	assert.Equal(t, []int{1, 3, 4}, indices)
}

func TestAutopilotRepository_Delete(t *testing.T) {
	// Arrange
	repo := persistence.NewGormAutopilotRepository(helpers.NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, savedFlyTo(1, "cmd-1")))

	// Act
	err := repo.Delete(ctx, 1)
	again := repo.Delete(ctx, 1)

	// Assert
	require.NoError(t, err)
	assert.NoError(t, again)
	_, err = repo.FindByVehicle(ctx, 1)
	var none *shared.NoActiveCommandError
	assert.True(t, errors.As(err, &none), "got %v", err)
}

func TestAutopilotRepository_UnreadableSnapshot(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormAutopilotRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, savedFlyTo(1, "good")))
	require.NoError(t, db.Create(&persistence.AutopilotCommandModel{
		VehicleIndex: 2,
		CommandID:    "bad",
		Kind:         string(domainAutopilot.KindDock),
		Status:       string(shared.LifecycleStatusRunning),
		AIMessage:    string(navigation.AIMessageNone),
		Snapshot:     datatypes.JSON("{not json"),
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}).Error)

	// Act
	_, findErr := repo.FindByVehicle(ctx, 2)
	all, listErr := repo.ListAll(ctx)

	// Assert
	var snapErr *shared.SnapshotError
	assert.True(t, errors.As(findErr, &snapErr), "got %v", findErr)
	require.NoError(t, listErr)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].CommandID)
}
