package config

// SimulationConfig holds the tick loop settings used by the CLI
type SimulationConfig struct {
	// Timestep is the game time per tick in seconds
	Timestep float64 `mapstructure:"timestep" validate:"gt=0,lte=10"`

	// MaxTicks bounds a simulate run
	MaxTicks int `mapstructure:"max_ticks" validate:"min=1"`

	// Realtime paces ticks to wall-clock time
	Realtime bool `mapstructure:"realtime"`

	// SpeedUp multiplies the realtime pace
	SpeedUp float64 `mapstructure:"speed_up" validate:"gt=0"`

	// SaveOnExit snapshots every active command when a run stops
	SaveOnExit bool `mapstructure:"save_on_exit"`

	// LockFile keeps a second saving or restoring run off the save store;
	// empty disables the lock
	LockFile string `mapstructure:"lock_file"`
}
