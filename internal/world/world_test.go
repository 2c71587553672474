package world

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
)

func officeScenario() *models.Scenario {
	return &models.Scenario{
		Name: "office",
		Locations: []models.LocationDef{
			{ID: "kitchen", Name: "Kitchen", ConnectedTo: []string{"hallway"}},
			{ID: "hallway", Name: "Hallway", ConnectedTo: []string{"office"}},
			{ID: "office", Name: "Office"},
		},
		Objects: []models.ObjectDef{
			{
				ObjectSpec: models.ObjectSpec{
					ID:         "coffee_machine",
					Name:       "Coffee Machine",
					Properties: map[string]models.Value{"state": models.String("working")},
					Mechanics:  "Brewing takes two ticks.",
				},
				Location: "kitchen",
			},
			{ObjectSpec: models.ObjectSpec{ID: "badge", Name: "Badge"}, Holder: "alice"},
		},
		Agents: []models.AgentDef{
			{AgentProfile: models.AgentProfile{ID: "alice", Name: "Alice"}, Location: "kitchen"},
			{AgentProfile: models.AgentProfile{ID: "bob", Name: "Bob"}, Location: "kitchen"},
			{AgentProfile: models.AgentProfile{ID: "carol", Name: "Carol"}, Location: "office"},
		},
	}
}

func newOffice(t *testing.T, opts ...Option) *World {
	t.Helper()
	w, err := New(officeScenario(), opts...)
	require.NoError(t, err)
	require.NoError(t, w.CheckInvariants())
	return w
}

func TestNewRejectsStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.Scenario)
	}{
		{"dangling connection", func(s *models.Scenario) {
			s.Locations[2].ConnectedTo = []string{"roof"}
		}},
		{"self connection", func(s *models.Scenario) {
			s.Locations[2].ConnectedTo = []string{"office"}
		}},
		{"duplicate location", func(s *models.Scenario) {
			s.Locations = append(s.Locations, models.LocationDef{ID: "office"})
		}},
		{"agent at unknown location", func(s *models.Scenario) {
			s.Agents[0].Location = "roof"
		}},
		{"duplicate agent", func(s *models.Scenario) {
			s.Agents = append(s.Agents, s.Agents[0])
		}},
		{"object in unknown container", func(s *models.Scenario) {
			s.Objects[1].Holder = "dave"
		}},
		{"object with two containers", func(s *models.Scenario) {
			s.Objects[1].Location = "office"
		}},
		{"duplicate object", func(s *models.Scenario) {
			s.Objects = append(s.Objects, s.Objects[0])
		}},
		{"invalid property value", func(s *models.Scenario) {
			s.Objects[0].Properties["broken"] = models.Value{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := officeScenario()
			tt.mutate(s)
			_, err := New(s)
			require.Error(t, err)
			assert.Equal(t, InvalidScenario, CodeOf(err))
		})
	}
}

func TestObserveIsSnapshot(t *testing.T) {
	w := newOffice(t)
	require.NoError(t, w.Remember("alice", "woke up"))

	obs, err := w.Observe("alice")
	require.NoError(t, err)
	assert.Equal(t, "kitchen", obs.Location.ID)
	assert.Equal(t, []string{"bob"}, obs.People)
	require.Len(t, obs.Connections, 1)
	assert.Equal(t, "hallway", obs.Connections[0].ID)
	require.Len(t, obs.Objects, 1)
	require.Len(t, obs.Inventory, 1)
	assert.Equal(t, "badge", obs.Inventory[0].ID)
	require.Len(t, obs.Memory, 1)
	assert.Equal(t, "Monday, 08:00 AM", obs.Time)

	obs.Objects[0].Properties["state"] = models.String("broken")
	obs.Memory[0].Text = "changed"

	o, err := w.Object("coffee_machine")
	require.NoError(t, err)
	assert.Equal(t, models.String("working"), o.Properties["state"])
	mem, _ := w.Memory("alice")
	assert.Equal(t, "woke up", mem[0].Text)
}

func TestResolveReachable(t *testing.T) {
	w := newOffice(t)

	o, err := w.ResolveReachable("alice", "coffee_machine")
	require.NoError(t, err)
	assert.Equal(t, "coffee_machine", o.ID)

	o, err = w.ResolveReachable("alice", "coffee machine")
	require.NoError(t, err)
	assert.Equal(t, "coffee_machine", o.ID)

	o, err = w.ResolveReachable("alice", "badge")
	require.NoError(t, err)
	assert.Equal(t, "badge", o.ID)

	_, err = w.ResolveReachable("carol", "coffee_machine")
	assert.Equal(t, NotReachable, CodeOf(err))

	_, err = w.ResolveReachable("alice", "teapot")
	assert.Equal(t, UnknownObject, CodeOf(err))
}

func TestMoveAgent(t *testing.T) {
	w := newOffice(t)

	err := w.MoveAgent("alice", "office")
	assert.Equal(t, InvalidMove, CodeOf(err))
	loc, _ := w.Locate("alice")
	assert.Equal(t, "kitchen", loc)

	assert.Equal(t, UnknownLocation, CodeOf(w.MoveAgent("alice", "roof")))
	assert.Equal(t, UnknownAgent, CodeOf(w.MoveAgent("dave", "hallway")))

	require.NoError(t, w.MoveAgent("alice", "hallway"))
	loc, _ = w.Locate("alice")
	assert.Equal(t, "hallway", loc)

	// Held objects travel with the agent.
	inv, err := w.Inventory("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"badge"}, inv)
	require.NoError(t, w.CheckInvariants())
}

func TestSayReachesOnlyColocatedAgents(t *testing.T) {
	w := newOffice(t)

	heard, err := w.Say("alice", "morning")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, heard)

	bob, _ := w.Memory("bob")
	require.Len(t, bob, 1)
	assert.Equal(t, `You heard Alice say: "morning"`, bob[0].Text)
	carol, _ := w.Memory("carol")
	assert.Empty(t, carol)
	alice, _ := w.Memory("alice")
	assert.Equal(t, `You said: "morning"`, alice[0].Text)
}

func TestObjectMutations(t *testing.T) {
	w := newOffice(t)

	require.NoError(t, w.CreateObject(models.ObjectSpec{ID: "cup", Name: "Coffee Cup"}, models.HeldBy("alice")))
	inv, _ := w.Inventory("alice")
	assert.Equal(t, []string{"badge", "cup"}, inv)

	assert.Equal(t, DuplicateObject, CodeOf(w.CreateObject(models.ObjectSpec{ID: "cup"}, models.AtLocation("kitchen"))))
	assert.Equal(t, UnknownAgent, CodeOf(w.CreateObject(models.ObjectSpec{ID: "x"}, models.HeldBy("dave"))))
	assert.Equal(t, UnknownLocation, CodeOf(w.CreateObject(models.ObjectSpec{ID: "x"}, models.AtLocation("roof"))))

	require.NoError(t, w.TransferObject("cup", models.AtLocation("kitchen")))
	assert.Equal(t, []string{"coffee_machine", "cup"}, w.ObjectsAt("kitchen"))
	inv, _ = w.Inventory("alice")
	assert.Equal(t, []string{"badge"}, inv)

	require.NoError(t, w.SetObjectProperty("cup", "full", models.Bool(true)))
	assert.Equal(t, InvalidValue, CodeOf(w.SetObjectProperty("cup", "full", models.Value{})))

	require.NoError(t, w.DestroyObject("cup"))
	assert.False(t, w.ObjectExists("cup"))
	assert.Equal(t, PreconditionFailed, CodeOf(w.DestroyObject("cup")))
	assert.Equal(t, PreconditionFailed, CodeOf(w.TransferObject("cup", models.AtLocation("office"))))
	assert.Equal(t, PreconditionFailed, CodeOf(w.SetObjectProperty("cup", "full", models.Bool(false))))

	require.NoError(t, w.CheckInvariants())
}

func TestBroadcast(t *testing.T) {
	w := newOffice(t)

	listeners, err := w.Broadcast("kitchen", "The fire alarm rings.")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, listeners)

	_, err = w.Broadcast("roof", "hello")
	assert.Equal(t, UnknownLocation, CodeOf(err))
}

func TestLockLifecycle(t *testing.T) {
	w := newOffice(t)

	// Applied while resolving tick 0: blocks ticks 1 and 2.
	clamped, err := w.LockAgent("alice", 2, "brewing coffee")
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.False(t, w.IsLocked("alice"))

	var locked []bool
	for i := 0; i < 3; i++ {
		tick, expired := w.Advance()
		locked = append(locked, w.IsLocked("alice"))
		if tick == 3 {
			require.Len(t, expired, 1)
			assert.Equal(t, "alice", expired[0].Agent)
		} else {
			assert.Empty(t, expired)
		}
	}
	assert.Equal(t, []bool{true, true, false}, locked)

	mem, _ := w.Memory("alice")
	require.NotEmpty(t, mem)
	assert.Equal(t, "Finished brewing coffee.", mem[len(mem)-1].Text)
	assert.Equal(t, uint64(3), mem[len(mem)-1].Tick)
}

func TestLockClampsNegativeDuration(t *testing.T) {
	w := newOffice(t)

	clamped, err := w.LockAgent("bob", -5, "napping")
	require.NoError(t, err)
	assert.True(t, clamped)
	_, ok := w.LockState("bob")
	assert.False(t, ok)

	w.Advance()
	assert.False(t, w.IsLocked("bob"))

	_, err = w.LockAgent("dave", 1, "")
	assert.Equal(t, UnknownAgent, CodeOf(err))
}

func TestLockKeepsLongerExistingLock(t *testing.T) {
	w := newOffice(t)

	_, err := w.LockAgent("bob", 5, "long meeting")
	require.NoError(t, err)
	_, err = w.LockAgent("bob", 1, "quick call")
	require.NoError(t, err)

	l, ok := w.LockState("bob")
	require.True(t, ok)
	assert.Equal(t, uint64(6), l.Until)
	assert.Equal(t, "long meeting", l.Reason)
}

func TestClockTime(t *testing.T) {
	start := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	w := newOffice(t, WithClock(start, 30*time.Minute))
	w.Advance()
	w.Advance()
	assert.Equal(t, start.Add(time.Hour), w.Now())
	assert.Equal(t, "Tuesday, 10:00 AM", w.TimeString())
}

func TestErrorIs(t *testing.T) {
	w := newOffice(t)
	err := w.MoveAgent("alice", "office")
	assert.True(t, errors.Is(err, &Error{Code: InvalidMove}))
	assert.False(t, errors.Is(err, &Error{Code: UnknownLocation}))
	assert.True(t, IsKnownCode(InvalidMove))
	assert.False(t, IsKnownCode("NOPE"))
}

func TestSnapshot(t *testing.T) {
	w := newOffice(t)
	_, err := w.LockAgent("bob", 1, "reading")
	require.NoError(t, err)

	s := w.Snapshot()
	require.Len(t, s.Locations, 3)
	kitchen := s.Locations[0]
	assert.Equal(t, "kitchen", kitchen.ID)
	assert.Equal(t, []string{"hallway"}, kitchen.Connections)
	require.Len(t, kitchen.Agents, 2)
	assert.Equal(t, "Alice", kitchen.Agents[0].Name)
	require.Len(t, kitchen.Agents[0].Inventory, 1)
	assert.False(t, kitchen.Agents[1].Locked, "locks start with the next tick")
	assert.Equal(t, uint64(2), kitchen.Agents[1].LockedUntil)
	assert.Equal(t, "reading", kitchen.Agents[1].LockReason)
}
