package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/database"
)

// NewLogCommand creates the log command
func NewLogCommand() *cobra.Command {
	var (
		limit int
		level string
		last  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "log <vehicle-index>",
		Short: "Get the flight log of a vehicle",
		Long: `Retrieve the flight log written during simulate runs with
logging.flight_log enabled. Timestamps are game time.

Examples:
  autopilot log 1
  autopilot log 1 --limit 50
  autopilot log 1 --level ERROR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vehicleIndex, err := parseVehicleIndex(args[0])
			if err != nil {
				return err
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			logRepo := persistence.NewGormFlightLogRepository(db, nil)

			var levelPtr *string
			if level != "" {
				upper := strings.ToUpper(level)
				levelPtr = &upper
			}

			logs, err := logRepo.GetLogs(context.Background(), vehicleIndex, limit, levelPtr, nil)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}
			if last > 0 && len(logs) > 0 {
				// Timestamps are game time, so count back from the newest entry
				cutoff := logs[0].Timestamp.Add(-last)
				logs, err = logRepo.GetLogs(context.Background(), vehicleIndex, limit, levelPtr, &cutoff)
				if err != nil {
					return fmt.Errorf("failed to get logs: %w", err)
				}
			}

			if len(logs) == 0 {
				fmt.Println("No logs found for vehicle:", vehicleIndex)
				return nil
			}

			// Display logs in reverse order (oldest first)
			for i := len(logs) - 1; i >= 0; i-- {
				entry := logs[i]
				fmt.Printf("[%s] [%s] %s",
					entry.Timestamp.Format("2006-01-02 15:04:05.000"),
					entry.Level,
					entry.Message,
				)
				if kind, ok := entry.Metadata["kind"]; ok {
					fmt.Printf(" kind=%v", kind)
				}
				if msg, ok := entry.Metadata["ai_message"]; ok && msg != "" {
					fmt.Printf(" ai_message=%v", msg)
				}
				fmt.Println()
			}

			fmt.Printf("\nTotal: %d log entries\n", len(logs))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of log entries")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (INFO, WARNING, ERROR, DEBUG)")
	cmd.Flags().DurationVar(&last, "last", 0, "Only show entries within this much game time of the newest")

	return cmd
}
