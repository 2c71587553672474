package commands

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tatianab/agentia/internal/config"
	"github.com/tatianab/agentia/internal/engine"
	"github.com/tatianab/agentia/internal/printer"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/ticklog"
	"github.com/tatianab/agentia/internal/tui"
)

var (
	runScenario string
	runTicks    int
	runTUI      bool
	runNoLog    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario against Gemini",
	Long: `Run a scenario for a number of ticks, asking Gemini for every agent decision
and every object interaction.

Each tick is printed as it completes and written to a zstd-compressed tick log
under log_dir, named after the run id, with the end-of-run statistics saved
beside it as <run-id>.stats.json. The log can be replayed offline with
'agentia replay'.

Examples:
  # Ten ticks of the bundled office scenario
  agentia run --scenario office

  # Step through interactively
  agentia run --scenario office --ticks 50 --tui`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "Scenario name or path")
	runCmd.Flags().IntVarP(&runTicks, "ticks", "t", 10, "Number of ticks to run (the viewer's cap with --tui)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Step through the run in the interactive viewer")
	runCmd.Flags().BoolVar(&runNoLog, "no-log", false, "Do not write a tick log")
	_ = runCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runTicks <= 0 {
		return printer.Error("Invalid tick count", "--ticks must be positive", nil)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return printer.Error("Missing API key", err.Error(), []string{
			"export " + config.EnvAPIKey + "=<your key>",
			"Use 'agentia replay' to rerun a recorded tick log offline",
		})
	}
	w, _, err := buildWorld(cfg, runScenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	out := cmd.OutOrStdout()

	// The viewer owns the terminal, so logs go to a file next to the tick log.
	logOut := cmd.ErrOrStderr()
	if runTUI {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return printer.Error("Cannot create log directory", err.Error(), nil)
		}
		f, err := os.Create(filepath.Join(cfg.LogDir, runID+".log"))
		if err != nil {
			return printer.Error("Cannot create log file", err.Error(), nil)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg, logOut)

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model,
		engine.WithLogger(logger),
		engine.WithTickMinutes(cfg.TickMinutes),
	)
	if err != nil {
		return printer.Error("Cannot reach Gemini", err.Error(), nil)
	}
	defer eng.Close()

	var tl *ticklog.Writer
	if !runNoLog {
		tl, err = ticklog.Create(cfg.LogDir, runID)
		if err != nil {
			return printer.Error("Cannot create tick log", err.Error(), nil)
		}
		defer tl.Close()
	}

	sched := sim.NewScheduler(w, eng, eng, sim.Options{
		RunID:                  runID,
		MaxConcurrentDecisions: cfg.MaxConcurrentDecisions,
		DecisionTimeout:        cfg.DecisionTimeout,
		ResolveTimeout:         cfg.ResolveTimeout,
		Logger:                 logger,
		Sink:                   consoleSink(out, tl, !runTUI),
	})

	printer.Step("Run %s: %s for %d ticks with %s\n", runID, runScenario, runTicks, cfg.Model)
	if runTUI {
		err = tui.Run(ctx, sched, w.Snapshot, runTicks)
	} else {
		_, err = sched.Run(ctx, runTicks)
	}
	if errors.Is(err, context.Canceled) {
		printer.Warning("Interrupted after %d ticks\n", sched.Stats().Ticks)
		err = nil
	}

	printer.Stats(out, sched.Stats())
	printer.Info("Model calls: %d\n", eng.Calls())
	if tl != nil {
		printer.Success("Tick log written to %s\n", tl.Path())
		if path, serr := ticklog.WriteStats(cfg.LogDir, runID, sched.Stats()); serr != nil {
			printer.Warning("Could not save run summary: %v\n", serr)
		} else {
			printer.Success("Run summary written to %s\n", path)
		}
	}
	if err != nil {
		return printer.Error("Run failed", err.Error(), nil)
	}
	return nil
}

// consoleSink prints each record when echo is set and forwards it to the
// tick log when there is one.
func consoleSink(out io.Writer, tl *ticklog.Writer, echo bool) sim.RecordSink {
	return sim.SinkFunc(func(rec sim.TickRecord) error {
		if echo {
			printer.Tick(out, rec)
		}
		if tl == nil {
			return nil
		}
		return tl.WriteTick(rec)
	})
}
