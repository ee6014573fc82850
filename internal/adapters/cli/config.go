package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autopilot-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect autopilot configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (AP_* prefix, plus DATABASE_URL)
2. Config file (config.yaml)
3. Default values

Examples:
  autopilot config show
  autopilot config show --tuning`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	var showTuning bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Display the effective configuration settings.

With --tuning the full autopilot tuning, stock values included, is printed
as JSON.

Example:
  autopilot config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Warning: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			if showTuning {
				fmt.Println(prettyPrint(cfg.Autopilot.Tuning()))
				return nil
			}

			fmt.Println("Autopilot Configuration")
			fmt.Println("=======================")

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Printf("  Path:             %s\n", cfg.Database.Path)
			default:
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			}
			fmt.Printf("  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)

			fmt.Println("\nSimulation:")
			fmt.Printf("  Timestep:         %.3fs\n", cfg.Simulation.Timestep)
			fmt.Printf("  Max Ticks:        %d\n", cfg.Simulation.MaxTicks)
			fmt.Printf("  Realtime:         %t (x%.1f)\n", cfg.Simulation.Realtime, cfg.Simulation.SpeedUp)
			fmt.Printf("  Save On Exit:     %t\n", cfg.Simulation.SaveOnExit)

			tuning := cfg.Autopilot.Tuning()
			fmt.Println("\nAutopilot:")
			fmt.Printf("  Long Haul:        %.0fm\n", tuning.LongHaulDistance)
			fmt.Printf("  Dock Approach:    %.0fm\n", tuning.DockApproachRange)
			fmt.Printf("  Formation Range:  %.0fm\n", tuning.FormationRange)
			fmt.Printf("  Transit Ranges:   %d bands from %.0fm\n", len(tuning.TransitRanges), tuning.NoTransitRange)

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:          %t\n", cfg.Metrics.Enabled)
			fmt.Printf("  Endpoint:         %s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)
			fmt.Printf("  Flight Log:       %t\n", cfg.Logging.FlightLog)

			return nil
		},
	}

	cmd.Flags().BoolVar(&showTuning, "tuning", false, "Print the autopilot tuning as JSON")

	return cmd
}

// maskPassword masks passwords in connection strings for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// prettyPrint formats JSON for display
func prettyPrint(v interface{}) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes)
}
