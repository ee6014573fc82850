package logging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
)

// CommandLogger adapts zerolog.Logger to the application's CommandLogger
// port, optionally copying every entry that names a vehicle into the
// flight log.
type CommandLogger struct {
	logger    zerolog.Logger
	flightLog persistence.FlightLogRepository
}

// NewCommandLogger creates a CommandLogger; flightLog may be nil
func NewCommandLogger(logger zerolog.Logger, flightLog persistence.FlightLogRepository) *CommandLogger {
	return &CommandLogger{logger: logger, flightLog: flightLog}
}

// Log writes one structured entry
func (l *CommandLogger) Log(level, message string, metadata map[string]interface{}) {
	l.logger.WithLevel(ParseLevel(level)).Fields(metadata).Msg(message)

	if l.flightLog == nil {
		return
	}
	vehicleIndex, ok := metadata["vehicle_index"].(int)
	if !ok {
		return
	}
	commandID, _ := metadata["command_id"].(string)
	if err := l.flightLog.Log(context.Background(), vehicleIndex, commandID, message, normalizeLevel(level), metadata); err != nil {
		l.logger.Warn().Err(err).Int("vehicle_index", vehicleIndex).Msg("Failed to write flight log")
	}
}

// normalizeLevel stores levels in the upper-case form the application uses
func normalizeLevel(level string) string {
	switch ParseLevel(level) {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return "DEBUG"
	case zerolog.WarnLevel:
		return "WARNING"
	case zerolog.ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}
