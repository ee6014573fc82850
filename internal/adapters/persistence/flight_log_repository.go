package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/andrescamacho/autopilot-go/internal/domain/shared"
)

// FlightLogRepository manages per-vehicle flight log persistence
type FlightLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, vehicleIndex int, commandID, message, level string, metadata map[string]interface{}) error

	// GetLogs retrieves the newest logs for a vehicle with optional filtering
	GetLogs(ctx context.Context, vehicleIndex int, limit int, level *string, since *time.Time) ([]FlightLogEntry, error)
}

// FlightLogEntry represents a log entry
type FlightLogEntry struct {
	ID           int
	VehicleIndex int
	CommandID    string
	Timestamp    time.Time
	Level        string
	Message      string
	Metadata     map[string]interface{}
}

// GormFlightLogRepository is a GORM-based implementation. Timestamps come
// from the supplied clock, normally the simulation clock, so the dedup
// window is measured in game time.
type GormFlightLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	dedupCache   map[string]time.Time // key: vehicle+message, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormFlightLogRepository creates a new flight log repository.
// If clock is nil, uses RealClock.
func NewGormFlightLogRepository(db *gorm.DB, clock shared.Clock) *GormFlightLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormFlightLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  10 * time.Second,
		dedupMaxSize: 10000,
	}
}

// SetDedupWindow changes how long identical messages are suppressed
func (r *GormFlightLogRepository) SetDedupWindow(window time.Duration) {
	r.dedupMu.Lock()
	defer r.dedupMu.Unlock()
	r.dedupWindow = window
}

// Log writes a log entry with time-windowed deduplication
func (r *GormFlightLogRepository) Log(ctx context.Context, vehicleIndex int, commandID, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := dedupKey(vehicleIndex, message)

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		metadataJSON = []byte("null")
	}

	entry := &FlightLogModel{
		VehicleIndex: vehicleIndex,
		CommandID:    commandID,
		Timestamp:    now,
		Level:        level,
		Message:      message,
		Metadata:     datatypes.JSON(metadataJSON),
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes entries older than the window.
// Must be called while holding dedupMu.
func (r *GormFlightLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs for a vehicle, newest first
func (r *GormFlightLogRepository) GetLogs(ctx context.Context, vehicleIndex int, limit int, level *string, since *time.Time) ([]FlightLogEntry, error) {
	var models []FlightLogModel

	query := r.db.WithContext(ctx).Where("vehicle_index = ?", vehicleIndex)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}
	query = query.Order("timestamp DESC").Order("id DESC").Limit(limit)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]FlightLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			metadata = nil
		}
		entries[i] = FlightLogEntry{
			ID:           model.ID,
			VehicleIndex: model.VehicleIndex,
			CommandID:    model.CommandID,
			Timestamp:    model.Timestamp,
			Level:        model.Level,
			Message:      model.Message,
			Metadata:     metadata,
		}
	}
	return entries, nil
}

func dedupKey(vehicleIndex int, message string) string {
	return fmt.Sprintf("%d|%s", vehicleIndex, message)
}
