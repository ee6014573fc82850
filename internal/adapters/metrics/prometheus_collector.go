package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "autopilot"
	// Subsystem for command engine metrics
	subsystem = "engine"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalAutopilotCollector is the singleton autopilot metrics collector
	// Set by SetGlobalAutopilotCollector() when metrics are enabled
	globalAutopilotCollector AutopilotMetricsRecorder
)

// AutopilotMetricsRecorder defines the interface for recording autopilot events
// This interface is used by application code to record metrics
type AutopilotMetricsRecorder interface {
	RecordCommandEngaged(kind string)
	RecordCommandFinished(kind string, outcome string, ticks int, gameSeconds float64)
	RecordChildSpawned(parentKind, childKind string)
	RecordAIMessage(message string)
	RecordTick(activeCommands int, duration float64)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalAutopilotCollector sets the global autopilot metrics collector
func SetGlobalAutopilotCollector(collector AutopilotMetricsRecorder) {
	globalAutopilotCollector = collector
}

// RecordCommandEngaged records a top-level command being engaged globally
func RecordCommandEngaged(kind string) {
	if globalAutopilotCollector != nil {
		globalAutopilotCollector.RecordCommandEngaged(kind)
	}
}

// RecordCommandFinished records a top-level command leaving its slot globally
func RecordCommandFinished(kind string, outcome string, ticks int, gameSeconds float64) {
	if globalAutopilotCollector != nil {
		globalAutopilotCollector.RecordCommandFinished(kind, outcome, ticks, gameSeconds)
	}
}

// RecordChildSpawned records a delegation to a child command globally
func RecordChildSpawned(parentKind, childKind string) {
	if globalAutopilotCollector != nil {
		globalAutopilotCollector.RecordChildSpawned(parentKind, childKind)
	}
}

// RecordAIMessage records a pilot-facing message globally
func RecordAIMessage(message string) {
	if globalAutopilotCollector != nil {
		globalAutopilotCollector.RecordAIMessage(message)
	}
}

// RecordTick records one controller tick globally
func RecordTick(activeCommands int, duration float64) {
	if globalAutopilotCollector != nil {
		globalAutopilotCollector.RecordTick(activeCommands, duration)
	}
}
