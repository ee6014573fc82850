package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/andrescamacho/autopilot-go/internal/adapters/persistence"
	autopilotQuery "github.com/andrescamacho/autopilot-go/internal/application/autopilot/queries"
	"github.com/andrescamacho/autopilot-go/internal/application/mediator"
	"github.com/andrescamacho/autopilot-go/internal/infrastructure/database"
)

// NewSnapshotCommand creates the snapshot command with subcommands
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect saved autopilot commands",
		Long: `Inspect the command chains saved by 'simulate --save'.

Examples:
  autopilot snapshot list
  autopilot snapshot show 1
  autopilot snapshot show 1 --json
  autopilot snapshot delete 1`,
	}

	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotShowCommand())
	cmd.AddCommand(newSnapshotDeleteCommand())

	return cmd
}

// newSnapshotListCommand lists every saved slot
func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			med := mediator.NewMediator()
			listHandler := autopilotQuery.NewListSavedCommandsHandler(persistence.NewGormAutopilotRepository(db))
			if err := mediator.RegisterHandler[*autopilotQuery.ListSavedCommandsQuery](med, listHandler); err != nil {
				return fmt.Errorf("failed to register ListSavedCommands handler: %w", err)
			}

			resp, err := med.Send(context.Background(), &autopilotQuery.ListSavedCommandsQuery{})
			if err != nil {
				return fmt.Errorf("failed to list saved commands: %w", err)
			}
			saved := resp.(*autopilotQuery.ListSavedCommandsResponse).Saved

			if len(saved) == 0 {
				fmt.Println("No saved commands")
				return nil
			}

			formatter := NewChainFormatter(false)
			fmt.Printf("%-8s %-10s %-16s %-20s %s\n", "VEHICLE", "STATUS", "AI MESSAGE", "SAVED", "CHAIN")
			for _, s := range saved {
				fmt.Printf("%-8d %-10s %-16s %-20s %s\n",
					s.VehicleIndex,
					s.Status,
					s.AIMessage,
					s.UpdatedAt.Format("2006-01-02 15:04:05"),
					formatter.FormatCompactChain(s.Snapshot),
				)
			}
			fmt.Printf("\nTotal: %d saved commands\n", len(saved))
			return nil
		},
	}
}

// newSnapshotShowCommand prints one vehicle's saved chain
func newSnapshotShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <vehicle-index>",
		Short: "Show a saved command chain",
		Args:  cobra.ExactArgs(1),
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

			repo := persistence.NewGormAutopilotRepository(db)
			saved, err := repo.FindByVehicle(context.Background(), vehicleIndex)
			if err != nil {
				return err
			}

			if asJSON {
				fmt.Println(prettyPrint(saved.Snapshot))
				return nil
			}

			fmt.Printf("Vehicle:     %d\n", saved.VehicleIndex)
			fmt.Printf("Command ID:  %s\n", saved.CommandID)
			fmt.Printf("Status:      %s\n", saved.Status)
			fmt.Printf("AI Message:  %s\n", saved.AIMessage.Describe())
			fmt.Printf("Saved At:    %s\n", saved.UpdatedAt.Format(time.RFC3339))
			if saved.StartedAt != nil {
				fmt.Printf("Started At:  %s\n", saved.StartedAt.Format(time.RFC3339))
			}
			fmt.Println("\nChain:")
			fmt.Print(NewChainFormatter(true).FormatChain(saved.Snapshot))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot as JSON")

	return cmd
}

// newSnapshotDeleteCommand removes one vehicle's saved chain
func newSnapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <vehicle-index>",
		Short: "Delete a saved command chain",
		Args:  cobra.ExactArgs(1),
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

			if err := persistence.NewGormAutopilotRepository(db).Delete(context.Background(), vehicleIndex); err != nil {
				return err
			}
			fmt.Printf("✓ Saved command for vehicle %d deleted\n", vehicleIndex)
			return nil
		},
	}
}

// openDatabase loads configuration and connects to the configured database
func openDatabase() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func parseVehicleIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid vehicle index %q", arg)
	}
	return idx, nil
}
