package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autopilot-go/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autopilot",
		Short: "Autopilot - fly navigation commands in a sandbox world",
		Long: `Autopilot runs the navigation command engine against a small physics
sandbox. Commands are engaged on vehicles, ticked at a fixed timestep and
can be saved to and restored from the database mid-flight.

Examples:
  autopilot scenarios
  autopilot simulate station --save
  autopilot snapshot list
  autopilot snapshot show 1
  autopilot log 1 --level WARNING`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/autopilot)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	// Add command groups
	rootCmd.AddCommand(NewSimulateCommand())
	rootCmd.AddCommand(NewScenariosCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewSnapshotCommand())
	rootCmd.AddCommand(NewLogCommand())

	return rootCmd
}

// loadConfig loads configuration from the --config flag or the default
// search paths
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
