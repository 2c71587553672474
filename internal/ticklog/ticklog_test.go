package ticklog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/world"
)

func sampleRecords() []sim.TickRecord {
	brew := models.Interact("coffee_machine", "brew")
	return []sim.TickRecord{
		{
			RunID: "run-1", Tick: 0, Time: "Monday, 08:00 AM",
			Agents: []sim.AgentRecord{{
				Agent: "alice", Proposed: &brew, Action: brew, Outcome: sim.OutcomeApplied,
				Resolution: &models.Resolution{Message: "Coffee.", Commands: []models.Command{
					models.UpdateObjectState("coffee_machine", "uses", models.Number(3)),
				}},
				Mutations: []sim.MutationRecord{{
					Command: models.UpdateObjectState("coffee_machine", "uses", models.Number(3)),
					Summary: "update coffee_machine.uses = 3", Applied: true,
				}},
			}},
		},
		{
			RunID: "run-1", Tick: 1, Time: "Monday, 08:10 AM",
			Agents: []sim.AgentRecord{{Agent: "alice", Action: models.Wait("brewing"), Outcome: sim.OutcomeLocked, Code: world.AgentLocked}},
			Events: []sim.Event{{Kind: sim.EventLockExpired, Agent: "alice", Message: "Finished brewing."}},
		},
	}
}

func TestWriteAndReadAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	w, err := Create(dir, "run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1.jsonl.zst"), w.Path())

	records := sampleRecords()
	for _, r := range records {
		require.NoError(t, w.WriteTick(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.WriteTick(records[0]))

	got, err := ReadAll(w.Path())
	require.NoError(t, err)
	require.NoError(t, sim.Compare(records, got))
	assert.Equal(t, "run-1", got[1].RunID)
}

func TestCreateRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, "dup")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Create(dir, "dup")
	assert.Error(t, err)
}

func TestReadAllRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))
	_, err := ReadAll(path)
	assert.Error(t, err)

	_, err = ReadAll(filepath.Join(t.TempDir(), "missing.jsonl.zst"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"a", "b"} {
		w, err := Create(dir, id)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	logs, err := List(dir)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestWriteStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	stats := sim.StatsOf(sampleRecords())

	path, err := WriteStats(dir, "run-1", stats)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1.stats.json"), path)

	got, err := ReadStats(path)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
	assert.Equal(t, 2, got.Ticks)
	assert.Equal(t, 1, got.LockedTurns)
	assert.Equal(t, 1, got.Actions[models.ActionInteract])

	logs, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, logs, "stats files are not tick logs")
}
