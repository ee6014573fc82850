package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AutopilotMetricsCollector handles command lifecycle and tick metrics
type AutopilotMetricsCollector struct {
	// Command lifecycle metrics
	commandsEngaged  *prometheus.CounterVec
	commandsFinished *prometheus.CounterVec
	commandTicks     *prometheus.HistogramVec
	commandGameTime  *prometheus.HistogramVec
	childrenSpawned  *prometheus.CounterVec
	aiMessages       *prometheus.CounterVec

	// Tick metrics
	ticksTotal     prometheus.Counter
	tickDuration   prometheus.Histogram
	activeCommands prometheus.Gauge
}

// NewAutopilotMetricsCollector creates a new autopilot metrics collector
func NewAutopilotMetricsCollector() *AutopilotMetricsCollector {
	return &AutopilotMetricsCollector{
		commandsEngaged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_engaged_total",
				Help:      "Total number of top-level commands engaged by kind",
			},
			[]string{"kind"},
		),

		commandsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_finished_total",
				Help:      "Total number of top-level commands leaving their slot by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		// Ticks a command ran before finishing
		commandTicks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_ticks",
				Help:      "Ticks advanced per command before it finished",
				Buckets:   []float64{1, 10, 60, 300, 1000, 5000, 20000, 100000},
			},
			[]string{"kind", "outcome"},
		),

		// Game time a command ran before finishing
		commandGameTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "command_game_seconds",
				Help:      "Game time per command before it finished",
				Buckets:   []float64{1, 10, 60, 300, 1800, 3600, 14400, 86400},
			},
			[]string{"kind", "outcome"},
		),

		childrenSpawned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "children_spawned_total",
				Help:      "Total number of delegations to a child command",
			},
			[]string{"parent", "child"},
		),

		aiMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ai_messages_total",
				Help:      "Total number of pilot-facing messages latched by commands",
			},
			[]string{"message"},
		),

		ticksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ticks_total",
				Help:      "Total number of controller ticks",
			},
		),

		// Wall-clock cost of one controller tick
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tick_duration_seconds",
				Help:      "Wall-clock duration of a controller tick",
				Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),

		activeCommands: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_commands",
				Help:      "Number of vehicles with an active autopilot command",
			},
		),
	}
}

// Register registers all autopilot metrics with the Prometheus registry
func (c *AutopilotMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.commandsEngaged,
		c.commandsFinished,
		c.commandTicks,
		c.commandGameTime,
		c.childrenSpawned,
		c.aiMessages,
		c.ticksTotal,
		c.tickDuration,
		c.activeCommands,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordCommandEngaged records a top-level command being engaged
func (c *AutopilotMetricsCollector) RecordCommandEngaged(kind string) {
	c.commandsEngaged.WithLabelValues(kind).Inc()
}

// RecordCommandFinished records a command leaving its slot
func (c *AutopilotMetricsCollector) RecordCommandFinished(
	kind string,
	outcome string,
	ticks int,
	gameSeconds float64,
) {
	c.commandsFinished.WithLabelValues(kind, outcome).Inc()
	c.commandTicks.WithLabelValues(kind, outcome).Observe(float64(ticks))
	c.commandGameTime.WithLabelValues(kind, outcome).Observe(gameSeconds)
}

// RecordChildSpawned records a delegation to a child command
func (c *AutopilotMetricsCollector) RecordChildSpawned(parentKind, childKind string) {
	c.childrenSpawned.WithLabelValues(parentKind, childKind).Inc()
}

// RecordAIMessage records a latched pilot-facing message
func (c *AutopilotMetricsCollector) RecordAIMessage(message string) {
	c.aiMessages.WithLabelValues(message).Inc()
}

// RecordTick records one controller tick
func (c *AutopilotMetricsCollector) RecordTick(activeCommands int, duration float64) {
	c.ticksTotal.Inc()
	c.tickDuration.Observe(duration)
	c.activeCommands.Set(float64(activeCommands))
}
