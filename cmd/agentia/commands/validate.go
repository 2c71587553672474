package commands

import (
	"github.com/spf13/cobra"

	"github.com/tatianab/agentia/internal/printer"
)

var validateCmd = &cobra.Command{
	Use:   "validate SCENARIO",
	Short: "Check that a scenario builds a valid world",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w, s, err := buildWorld(cfg, args[0])
		if err != nil {
			return err
		}
		if err := w.CheckInvariants(); err != nil {
			return printer.Error("Scenario "+args[0]+" is inconsistent", err.Error(), nil)
		}
		printer.Success("%s is valid: %d locations, %d objects, %d agents\n",
			s.Name, len(s.Locations), len(s.Objects), len(s.Agents))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
