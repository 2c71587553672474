package tui

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/world"
)

type countingStepper struct {
	tick uint64
	err  error
}

func (s *countingStepper) Step(context.Context) (sim.TickRecord, error) {
	if s.err != nil {
		return sim.TickRecord{}, s.err
	}
	rec := sim.TickRecord{Tick: s.tick, Agents: []sim.AgentRecord{{Agent: "alice", Action: models.Wait("idle"), Outcome: sim.OutcomeApplied}}}
	s.tick++
	return rec, nil
}

func (s *countingStepper) snapshot() world.Snapshot {
	return world.Snapshot{Tick: s.tick, Locations: []world.LocationSnapshot{{
		LocationView: models.LocationView{ID: "kitchen", Name: "Kitchen"},
		Agents:       []world.AgentSnapshot{{ID: "alice", Name: "Alice"}},
	}}}
}

func enter(t *testing.T, m model, input string) (model, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(model), cmd
}

// drain runs step commands until the model stops asking for more.
func drain(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	for cmd != nil {
		next, c := m.Update(cmd())
		m, cmd = next.(model), c
	}
	return m
}

func TestEnterStepsOneTick(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 0)

	m, cmd := enter(t, m, "")
	assert.Equal(t, stateStepping, m.state)
	m = drain(t, m, cmd)

	assert.Equal(t, stateReady, m.state)
	assert.Equal(t, 1, m.stepped)
	assert.Equal(t, uint64(1), m.world.Tick)
	assert.Contains(t, m.tickLog, "alice: wait")
	assert.Contains(t, m.renderWorld(), "Alice")
}

func TestRunStepsSeveralTicks(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 0)

	m, cmd := enter(t, m, "/run 3")
	m = drain(t, m, cmd)
	assert.Equal(t, 3, m.stepped)
	assert.Equal(t, uint64(3), s.tick)
	assert.Equal(t, stateReady, m.state)
}

func TestLimitStopsStepping(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 2)

	m, cmd := enter(t, m, "/run 5")
	m = drain(t, m, cmd)
	assert.Equal(t, 2, m.stepped)
	assert.Equal(t, stateDone, m.state)

	m, cmd = enter(t, m, "")
	assert.Nil(t, cmd)
	assert.Equal(t, uint64(2), s.tick)
}

func TestIgnoresInputWhileStepping(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 0)

	m, cmd := enter(t, m, "")
	require.NotNil(t, cmd)
	m, second := enter(t, m, "")
	assert.Nil(t, second)
	m = drain(t, m, cmd)
	assert.Equal(t, 1, m.stepped)
}

func TestStepErrorShowsError(t *testing.T) {
	s := &countingStepper{err: errors.New("sink closed")}
	m := newModel(context.Background(), s, s.snapshot, 0)

	m, cmd := enter(t, m, "")
	m = drain(t, m, cmd)
	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.View(), "sink closed")
}

func TestQuit(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 0)
	_, cmd := enter(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

type blockingStepper struct {
	entered   chan struct{}
	cancelled atomic.Bool
	returned  atomic.Bool
}

func (s *blockingStepper) Step(ctx context.Context) (sim.TickRecord, error) {
	close(s.entered)
	select {
	case <-ctx.Done():
		s.cancelled.Store(true)
	case <-time.After(5 * time.Second):
	}
	time.Sleep(20 * time.Millisecond)
	s.returned.Store(true)
	return sim.TickRecord{}, nil
}

func TestQuitWaitsForRunningStep(t *testing.T) {
	s := &blockingStepper{entered: make(chan struct{})}
	snapshot := func() world.Snapshot { return world.Snapshot{} }

	programs := make(chan *tea.Program, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), s, snapshot, 0,
			func(p *tea.Program) { programs <- p },
			tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutSignalHandler())
	}()

	p := <-programs
	p.Send(tea.KeyMsg{Type: tea.KeyEnter})
	select {
	case <-s.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("step never started")
	}

	p.Send(tea.KeyMsg{Type: tea.KeyEsc})
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after quit")
	}
	assert.True(t, s.cancelled.Load(), "step context should be cancelled on quit")
	assert.True(t, s.returned.Load(), "run returned before the step finished")
}

func TestQuitCancelsStepContext(t *testing.T) {
	s := &countingStepper{}
	m := newModel(context.Background(), s, s.snapshot, 0)
	_, cmd := enter(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.ErrorIs(t, m.ctx.Err(), context.Canceled)
}

func TestParseCommand(t *testing.T) {
	n, err := parseCommand("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = parseCommand("/run 4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, bad := range []string{"/run", "/run zero", "/run -1", "/walk 3", "/run 1 2"} {
		_, err := parseCommand(bad)
		assert.Error(t, err, bad)
	}
}
