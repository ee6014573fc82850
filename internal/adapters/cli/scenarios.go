package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/autopilot-go/internal/adapters/sandbox"
)

// NewScenariosCommand lists the sandbox scenarios
func NewScenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the sandbox scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := sandbox.ScenarioNames()
			fmt.Printf("%-12s %s\n", "NAME", "DESCRIPTION")
			for _, name := range names {
				fmt.Printf("%-12s %s\n", name, sandbox.DescribeScenario(name))
			}
			fmt.Printf("\nTotal: %d scenarios\n", len(names))
			return nil
		},
	}
}
