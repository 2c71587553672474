package sim

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

type fakeDecider struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, obs models.Observation) (models.Action, error)
	calls []turnKey
}

func (f *fakeDecider) Decide(ctx context.Context, obs models.Observation) (models.Action, error) {
	f.mu.Lock()
	f.calls = append(f.calls, turnKey{obs.Tick, obs.Agent.ID})
	f.mu.Unlock()
	return f.fn(ctx, obs)
}

// ticksFor returns the ticks at which agent was asked for a decision.
func (f *fakeDecider) ticksFor(agent string) []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint64
	for _, c := range f.calls {
		if c.agent == agent {
			out = append(out, c.tick)
		}
	}
	return out
}

// scripted decides from a per-agent, per-tick table and waits otherwise.
func scripted(table map[string]map[uint64]models.Action) *fakeDecider {
	return &fakeDecider{fn: func(_ context.Context, obs models.Observation) (models.Action, error) {
		if a, ok := table[obs.Agent.ID][obs.Tick]; ok {
			return a, nil
		}
		return models.Wait("idle"), nil
	}}
}

type fakeResolver struct {
	mu    sync.Mutex
	fn    func(in models.Interaction) (models.Resolution, error)
	calls []models.Interaction
}

func (f *fakeResolver) Resolve(_ context.Context, in models.Interaction) (models.Resolution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	return f.fn(in)
}

func resolveWith(res models.Resolution) *fakeResolver {
	return &fakeResolver{fn: func(models.Interaction) (models.Resolution, error) { return res, nil }}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kitchenScenario() *models.Scenario {
	return &models.Scenario{
		Name: "kitchen",
		Locations: []models.LocationDef{
			{ID: "kitchen", Name: "Kitchen", ConnectedTo: []string{"hallway"}},
			{ID: "hallway", Name: "Hallway", ConnectedTo: []string{"office"}},
			{ID: "office", Name: "Office"},
		},
		Objects: []models.ObjectDef{
			{
				ObjectSpec: models.ObjectSpec{
					ID:         "coffee_machine",
					Name:       "CoffeeMachine",
					Properties: map[string]models.Value{"state": models.String("working")},
					Mechanics:  "Brewing takes two ticks and produces one cup.",
				},
				Location: "kitchen",
			},
			{
				ObjectSpec: models.ObjectSpec{ID: "mug", Name: "Mug", Properties: map[string]models.Value{"clean": models.Bool(true)}},
				Location:   "kitchen",
			},
		},
		Agents: []models.AgentDef{
			{AgentProfile: models.AgentProfile{ID: "alice", Name: "Alice"}, Location: "kitchen"},
			{AgentProfile: models.AgentProfile{ID: "bob", Name: "Bob"}, Location: "kitchen"},
			{AgentProfile: models.AgentProfile{ID: "carol", Name: "Carol"}, Location: "hallway"},
		},
	}
}

func newKitchen(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(kitchenScenario())
	require.NoError(t, err)
	return w
}

func newScheduler(w *world.World, d DecisionMaker, r PhysicsResolver) *Scheduler {
	return NewScheduler(w, d, r, Options{
		RunID:                  "test-run",
		MaxConcurrentDecisions: 4,
		Logger:                 quietLogger(),
	})
}

func recordFor(t *testing.T, rec TickRecord, agent string) AgentRecord {
	t.Helper()
	for _, ar := range rec.Agents {
		if ar.Agent == agent {
			return ar
		}
	}
	t.Fatalf("no record for %s at tick %d", agent, rec.Tick)
	return AgentRecord{}
}
