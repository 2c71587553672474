package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/world"
)

func plain(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Scenario invalid", "location kitchen is declared twice", nil)
		require.Error(t, err)
		require.Equal(t, "Scenario invalid", err.Error())
	})

	t.Run("multiple suggestions", func(t *testing.T) {
		err := Error("No API key", "GEMINI_API_KEY is empty", []string{"export GEMINI_API_KEY", "use agentia replay"})
		require.Equal(t, "No API key", err.Error())
	})
}

func TestTick(t *testing.T) {
	plain(t)
	rec := sim.TickRecord{
		Tick: 2, Time: "Monday, 08:20 AM",
		Agents: []sim.AgentRecord{
			{
				Agent: "alice", Action: models.Interact("coffee_machine", "brew"), Outcome: sim.OutcomeApplied,
				Resolution: &models.Resolution{Message: "The machine gurgles."},
				Mutations: []sim.MutationRecord{
					{Summary: "lock alice for 2 ticks", Applied: true},
					{Summary: "destroy filter", Code: world.UnknownObject},
				},
			},
			{Agent: "bob", Action: models.Move("office"), Outcome: sim.OutcomeRejected, Code: world.ActionRejected, Detail: world.InvalidMove},
		},
		Events: []sim.Event{{Kind: sim.EventLockExpired, Agent: "carol", Message: "Done."}},
	}

	var buf bytes.Buffer
	Tick(&buf, rec)
	out := buf.String()
	assert.Contains(t, out, "tick 2  Monday, 08:20 AM")
	assert.Contains(t, out, "The machine gurgles.")
	assert.Contains(t, out, "+ lock alice for 2 ticks")
	assert.Contains(t, out, "x destroy filter")
	assert.Contains(t, out, "[rejected] INVALID_MOVE")
	assert.Contains(t, out, "* lock_expired carol: Done.")
}

func TestStats(t *testing.T) {
	plain(t)
	s := sim.NewStats()
	s.Ticks = 3
	s.Actions[models.ActionMove] = 2
	s.Actions[models.ActionTalk] = 1
	s.PerAgent["alice"] = 3
	s.Rejections[world.InvalidMove] = 1
	s.Notable = []string{"tick 1: create cup (alice)"}

	var buf bytes.Buffer
	Stats(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "Ticks:            3")
	assert.Contains(t, out, "Applied actions:  3")
	assert.Contains(t, out, "move: 2\n  talk: 1")
	assert.Contains(t, out, "INVALID_MOVE: 1")
	assert.NotContains(t, out, "Collaborator errors")
	assert.Contains(t, out, "tick 1: create cup (alice)")
}
