package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainAutopilot "github.com/andrescamacho/autopilot-go/internal/domain/autopilot"
	"github.com/andrescamacho/autopilot-go/internal/domain/navigation"
	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// GormAutopilotRepository implements autopilot.Repository using GORM
type GormAutopilotRepository struct {
	db *gorm.DB
}

// NewGormAutopilotRepository creates a new GORM autopilot repository
func NewGormAutopilotRepository(db *gorm.DB) *GormAutopilotRepository {
	return &GormAutopilotRepository{db: db}
}

// Save inserts the vehicle's slot, replacing any stored one
func (r *GormAutopilotRepository) Save(ctx context.Context, saved *domainAutopilot.SavedCommand) error {
	model, err := r.savedToModel(saved)
	if err != nil {
		return fmt.Errorf("failed to convert autopilot command to model: %w", err)
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vehicle_index"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save autopilot command: %w", result.Error)
	}
	return nil
}

// FindByVehicle retrieves the stored slot for a vehicle
func (r *GormAutopilotRepository) FindByVehicle(ctx context.Context, vehicleIndex int) (*domainAutopilot.SavedCommand, error) {
	var model AutopilotCommandModel
	result := r.db.WithContext(ctx).Where("vehicle_index = ?", vehicleIndex).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNoActiveCommandError(vehicleIndex)
		}
		return nil, fmt.Errorf("failed to find autopilot command: %w", result.Error)
	}

	return r.modelToSaved(&model)
}

// ListAll retrieves every stored slot ordered by vehicle index
func (r *GormAutopilotRepository) ListAll(ctx context.Context) ([]*domainAutopilot.SavedCommand, error) {
	var models []AutopilotCommandModel
	result := r.db.WithContext(ctx).Order("vehicle_index ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list autopilot commands: %w", result.Error)
	}

	saved := make([]*domainAutopilot.SavedCommand, 0, len(models))
	for i := range models {
		s, err := r.modelToSaved(&models[i])
		if err != nil {
			continue // Skip rows with unreadable snapshots
		}
		saved = append(saved, s)
	}
	return saved, nil
}

// Delete removes the vehicle's stored slot; deleting nothing is not an error
func (r *GormAutopilotRepository) Delete(ctx context.Context, vehicleIndex int) error {
	result := r.db.WithContext(ctx).Where("vehicle_index = ?", vehicleIndex).Delete(&AutopilotCommandModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete autopilot command: %w", result.Error)
	}
	return nil
}

func (r *GormAutopilotRepository) modelToSaved(model *AutopilotCommandModel) (*domainAutopilot.SavedCommand, error) {
	// a saved slot without a chain is stored as JSON null
	var snap *domainAutopilot.Snapshot
	if err := json.Unmarshal(model.Snapshot, &snap); err != nil {
		return nil, shared.NewSnapshotError(model.Kind, fmt.Sprintf("unreadable snapshot: %v", err))
	}

	return &domainAutopilot.SavedCommand{
		VehicleIndex: model.VehicleIndex,
		CommandID:    model.CommandID,
		Kind:         domainAutopilot.Kind(model.Kind),
		Status:       shared.LifecycleStatus(model.Status),
		AIMessage:    navigation.AIMessage(model.AIMessage),
		Snapshot:     snap,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		StartedAt:    model.StartedAt,
	}, nil
}

func (r *GormAutopilotRepository) savedToModel(saved *domainAutopilot.SavedCommand) (*AutopilotCommandModel, error) {
	snapshotJSON, err := json.Marshal(saved.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	depth := saved.Snapshot.Depth()

	aiMessage := saved.AIMessage
	if aiMessage == "" {
		aiMessage = navigation.AIMessageNone
	}

	return &AutopilotCommandModel{
		VehicleIndex: saved.VehicleIndex,
		CommandID:    saved.CommandID,
		Kind:         string(saved.Kind),
		Status:       string(saved.Status),
		AIMessage:    string(aiMessage),
		Depth:        depth,
		Snapshot:     datatypes.JSON(snapshotJSON),
		CreatedAt:    saved.CreatedAt,
		UpdatedAt:    saved.UpdatedAt,
		StartedAt:    saved.StartedAt,
	}, nil
}
