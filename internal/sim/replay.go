package sim

import (
	"context"
	"fmt"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// recordedError reproduces a collaborator failure with its original text.
type recordedError struct {
	msg       string
	malformed bool
}

func (e *recordedError) Error() string { return e.msg }

func (e *recordedError) Is(target error) bool {
	return e.malformed && target == models.ErrMalformedResponse
}

type turnKey struct {
	tick  uint64
	agent string
}

// Replay answers decision and resolution requests from recorded ticks.
// Feeding it to a fresh scheduler over the same scenario reproduces the
// recorded run.
type Replay struct {
	turns map[turnKey]AgentRecord
}

func NewReplay(records []TickRecord) *Replay {
	r := &Replay{turns: make(map[turnKey]AgentRecord)}
	for _, rec := range records {
		for _, ar := range rec.Agents {
			r.turns[turnKey{rec.Tick, ar.Agent}] = ar
		}
	}
	return r
}

func (r *Replay) Decide(_ context.Context, obs models.Observation) (models.Action, error) {
	ar, ok := r.turns[turnKey{obs.Tick, obs.Agent.ID}]
	if !ok {
		return models.Action{}, fmt.Errorf("no recorded turn for %s at tick %d", obs.Agent.ID, obs.Tick)
	}
	if ar.Proposed != nil {
		return *ar.Proposed, nil
	}
	return models.Action{}, replayError(ar)
}

func (r *Replay) Resolve(_ context.Context, in models.Interaction) (models.Resolution, error) {
	ar, ok := r.turns[turnKey{in.Tick, in.Actor.ID}]
	if !ok {
		return models.Resolution{}, fmt.Errorf("no recorded turn for %s at tick %d", in.Actor.ID, in.Tick)
	}
	if ar.Resolution != nil {
		return *ar.Resolution, nil
	}
	return models.Resolution{}, replayError(ar)
}

func replayError(ar AgentRecord) error {
	return &recordedError{msg: ar.Error, malformed: ar.Code == world.MalformedCollaboratorResponse}
}
