package ticklog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/tatianab/agentia/internal/sim"
)

// StatsExt is the file extension of run summaries.
const StatsExt = ".stats.json"

// StatsPath is where the summary of a run is written, next to its log.
func StatsPath(dir, runID string) string {
	return filepath.Join(dir, runID+StatsExt)
}

// WriteStats exports the run summary as indented JSON and returns its path.
func WriteStats(dir, runID string, s *sim.Stats) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", oops.Wrapf(err, "encode stats")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", oops.Wrapf(err, "create log dir %s", dir)
	}
	path := StatsPath(dir, runID)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", oops.Wrapf(err, "write stats %s", path)
	}
	return path, nil
}

// ReadStats loads a summary written by WriteStats.
func ReadStats(path string) (*sim.Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "read stats %s", path)
	}
	s := sim.NewStats()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, oops.Wrapf(err, "decode stats %s", path)
	}
	return s, nil
}
