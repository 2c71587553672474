// simulate_run drives a real scenario against Gemini, checks the world after
// every tick and then replays the recorded run offline to confirm it
// reproduces. It needs GEMINI_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tatianab/agentia/internal/config"
	"github.com/tatianab/agentia/internal/engine"
	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/printer"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/world"
)

func main() {
	scenarioPath := flag.String("scenario", "scenarios/office.yaml", "scenario file")
	ticks := flag.Int("ticks", 6, "ticks to run")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := simulate(context.Background(), logger, *scenarioPath, *ticks); err != nil {
		logger.Error("simulation failed", "err", err)
		os.Exit(1)
	}
}

func simulate(ctx context.Context, logger *slog.Logger, scenarioPath string, ticks int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	scenario, err := models.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	newWorld := func() (*world.World, error) {
		return world.New(scenario,
			world.WithMemoryCapacity(cfg.MemoryCapacity),
			world.WithClock(cfg.StartTime, cfg.TickDuration()))
	}

	// 1. Live run
	fmt.Println("--- Live run ---")
	w, err := newWorld()
	if err != nil {
		return err
	}
	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model,
		engine.WithLogger(logger), engine.WithTickMinutes(cfg.TickMinutes))
	if err != nil {
		return err
	}
	defer eng.Close()

	sched := sim.NewScheduler(w, eng, eng, sim.Options{
		MaxConcurrentDecisions: cfg.MaxConcurrentDecisions,
		DecisionTimeout:        cfg.DecisionTimeout,
		ResolveTimeout:         cfg.ResolveTimeout,
		Logger:                 logger,
		Sink: sim.SinkFunc(func(rec sim.TickRecord) error {
			printer.Tick(os.Stdout, rec)
			return w.CheckInvariants()
		}),
	})
	records, err := sched.Run(ctx, ticks)
	if err != nil {
		return fmt.Errorf("after %d ticks: %w", len(records), err)
	}
	printer.Stats(os.Stdout, sched.Stats())
	fmt.Printf("Model calls: %d\n\n", eng.Calls())

	// 2. Offline replay of the same records
	fmt.Println("--- Replay ---")
	w2, err := newWorld()
	if err != nil {
		return err
	}
	rp := sim.NewReplay(records)
	replayed, err := sim.NewScheduler(w2, rp, rp, sim.Options{RunID: sched.RunID(), Logger: logger}).Run(ctx, len(records))
	if err != nil {
		return err
	}
	if err := sim.Compare(records, replayed); err != nil {
		return fmt.Errorf("replay diverged: %w", err)
	}
	printer.Success("Replay of %d ticks matches the live run\n", len(records))
	return nil
}
