package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tatianab/agentia/internal/config"
	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/printer"
	"github.com/tatianab/agentia/internal/world"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, printer.Error("Invalid configuration", err.Error(), []string{"Check the file named by --config or " + config.EnvConfig})
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	lvl, _ := cfg.Level() // validated by config.Load
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// scenarioPath accepts either a file path or a scenario name under the
// scenarios directory.
func scenarioPath(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(models.ScenarioDir, arg+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return arg
}

func buildWorld(cfg *config.Config, arg string) (*world.World, *models.Scenario, error) {
	path := scenarioPath(arg)
	s, err := models.LoadScenario(path)
	if err != nil {
		return nil, nil, printer.Error("Cannot load scenario", err.Error(), []string{"Run 'agentia scenarios' to see the available scenarios"})
	}
	w, err := world.New(s,
		world.WithMemoryCapacity(cfg.MemoryCapacity),
		world.WithClock(cfg.StartTime, cfg.TickDuration()),
	)
	if err != nil {
		var werr *world.Error
		explanation := err.Error()
		if errors.As(err, &werr) {
			explanation = werr.Msg
		}
		return nil, nil, printer.Error("Scenario "+path+" is invalid", explanation, nil)
	}
	return w, s, nil
}
