package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/printer"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [DIR]",
	Short: "List the available scenarios",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := models.ScenarioDir
		if len(args) == 1 {
			dir = args[0]
		}
		names, err := models.ListScenarios(dir)
		if err != nil {
			return printer.Error("Cannot list scenarios", err.Error(), nil)
		}
		if len(names) == 0 {
			printer.Warning("No scenarios in %s\n", dir)
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
