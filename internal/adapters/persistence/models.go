package persistence

import (
	"time"

	"gorm.io/datatypes"
)

// AutopilotCommandModel represents the autopilot_commands table.
// One row per vehicle: saving a slot replaces the previous row.
type AutopilotCommandModel struct {
	VehicleIndex int            `gorm:"column:vehicle_index;primaryKey;autoIncrement:false"`
	CommandID    string         `gorm:"column:command_id;not null;index"`
	Kind         string         `gorm:"column:kind;not null"`
	Status       string         `gorm:"column:status;not null"`
	AIMessage    string         `gorm:"column:ai_message;not null;default:'NONE'"`
	Depth        int            `gorm:"column:depth;not null;default:0"`
	Snapshot     datatypes.JSON `gorm:"column:snapshot;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
	StartedAt    *time.Time     `gorm:"column:started_at"`
}

func (AutopilotCommandModel) TableName() string {
	return "autopilot_commands"
}

// FlightLogModel represents the flight_logs table
type FlightLogModel struct {
	ID           int            `gorm:"column:id;primaryKey;autoIncrement"`
	VehicleIndex int            `gorm:"column:vehicle_index;not null;index"`
	CommandID    string         `gorm:"column:command_id;index"`
	Timestamp    time.Time      `gorm:"column:timestamp;not null"`
	Level        string         `gorm:"column:level;not null;default:'INFO'"`
	Message      string         `gorm:"column:message;type:text;not null"`
	Metadata     datatypes.JSON `gorm:"column:metadata;not null"`
}

func (FlightLogModel) TableName() string {
	return "flight_logs"
}
