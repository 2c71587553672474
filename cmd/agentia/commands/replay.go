package commands

import (
	"github.com/spf13/cobra"

	"github.com/tatianab/agentia/internal/printer"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/ticklog"
)

var replayQuiet bool

var replayCmd = &cobra.Command{
	Use:   "replay SCENARIO [TICKLOG]",
	Short: "Re-run a recorded tick log offline and check it reproduces",
	Long: `Replay feeds the decisions and resolutions recorded in a tick log back
through the simulation, without calling Gemini, and compares the new records
with the recorded ones. Without TICKLOG the most recent log in log_dir is used.

The scenario and the clock settings must match the original run.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Only print the result")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var path string
	if len(args) == 2 {
		path = args[1]
	} else {
		logs, err := ticklog.List(cfg.LogDir)
		if err != nil || len(logs) == 0 {
			return printer.Error("No tick log to replay", "Nothing found in "+cfg.LogDir, []string{"Pass the tick log path explicitly"})
		}
		path = logs[len(logs)-1]
	}

	records, err := ticklog.ReadAll(path)
	if err != nil {
		return printer.Error("Cannot read tick log", err.Error(), nil)
	}
	if len(records) == 0 {
		return printer.Error("Empty tick log", path+" has no records", nil)
	}

	w, _, err := buildWorld(cfg, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rp := sim.NewReplay(records)
	sched := sim.NewScheduler(w, rp, rp, sim.Options{
		RunID:                  records[0].RunID,
		MaxConcurrentDecisions: cfg.MaxConcurrentDecisions,
		Logger:                 newLogger(cfg, cmd.ErrOrStderr()),
		Sink:                   consoleSink(out, nil, !replayQuiet),
	})
	got, err := sched.Run(cmd.Context(), len(records))
	if err != nil {
		return printer.Error("Replay failed", err.Error(), nil)
	}
	if err := sim.Compare(records, got); err != nil {
		return printer.Error("Replay diverged", err.Error(), []string{
			"Check that the scenario file is unchanged",
			"Check that tick_minutes and start_time match the original run",
		})
	}
	if !replayQuiet {
		printer.Stats(out, sched.Stats())
	}
	printer.Success("Replayed %d ticks of run %s\n", len(records), records[0].RunID)
	return nil
}
