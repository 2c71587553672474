package commands

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentia",
	Short: "agentia - a tick-based world simulation driven by language-model agents",
	Long: `agentia runs a small world of locations, objects and agents one tick at a
time. Each tick every free agent picks an action through Gemini; moves, talk and
waits are applied directly and object interactions are resolved by a second
model call into world mutations.

Configuration is read from the YAML file given by --config or AGENTIA_CONFIG,
with GEMINI_API_KEY and AGENTIA_MODEL taken from the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to $AGENTIA_CONFIG)")
}
