package sim

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// Outcome says what became of an agent's turn.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected" // validator refused, nothing mutated
	OutcomeFailed   Outcome = "failed"   // collaborator error, turn degraded to wait
	OutcomeLocked   Outcome = "locked"   // not polled this tick
)

// MutationRecord is one resolver command and what happened to it.
type MutationRecord struct {
	Command models.Command `json:"command"`
	Summary string         `json:"summary"`
	Applied bool           `json:"applied"`
	Code    world.Code     `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// AgentRecord is the per-agent part of a tick record.
//
// Proposed is the action exactly as the decision maker returned it and
// Resolution is the resolver output exactly as returned, so a run can be
// replayed from its records alone.
type AgentRecord struct {
	Agent      string             `json:"agent"`
	Proposed   *models.Action     `json:"proposed,omitempty"`
	Action     models.Action      `json:"action"`
	Outcome    Outcome            `json:"outcome"`
	Code       world.Code         `json:"code,omitempty"`
	Detail     world.Code         `json:"detail,omitempty"`
	Error      string             `json:"error,omitempty"`
	Heard      []string           `json:"heard,omitempty"`
	Resolution *models.Resolution `json:"resolution,omitempty"`
	Mutations  []MutationRecord   `json:"mutations,omitempty"`
}

// Summary is a one-line rendering for logs and the viewer.
func (r AgentRecord) Summary() string {
	s := fmt.Sprintf("%s: %s [%s]", r.Agent, r.Action.Summary(), r.Outcome)
	if r.Detail != "" {
		s += " " + string(r.Detail)
	} else if r.Code != "" {
		s += " " + string(r.Code)
	}
	return s
}

// EventKind names tick-level events that are not tied to an action.
type EventKind string

const EventLockExpired EventKind = "lock_expired"

type Event struct {
	Kind    EventKind `json:"kind"`
	Agent   string    `json:"agent"`
	Message string    `json:"message,omitempty"`
}

// TickRecord is everything that happened during one tick.
type TickRecord struct {
	RunID  string        `json:"run_id"`
	Tick   uint64        `json:"tick"`
	Time   string        `json:"time"`
	Agents []AgentRecord `json:"agents"`
	Events []Event       `json:"events,omitempty"`
}

// RecordSink receives each tick record once the tick has completed.
type RecordSink interface {
	WriteTick(TickRecord) error
}

// SinkFunc adapts a function to RecordSink.
type SinkFunc func(TickRecord) error

func (f SinkFunc) WriteTick(r TickRecord) error { return f(r) }

// Compare reports the first tick at which two runs diverge. Run ids are
// ignored.
func Compare(want, got []TickRecord) error {
	if len(want) != len(got) {
		return fmt.Errorf("run has %d ticks, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		w.RunID, g.RunID = "", ""
		wb, err := json.Marshal(w)
		if err != nil {
			return err
		}
		gb, err := json.Marshal(g)
		if err != nil {
			return err
		}
		if !bytes.Equal(wb, gb) {
			return fmt.Errorf("tick %d differs:\nwant %s\ngot  %s", w.Tick, wb, gb)
		}
	}
	return nil
}
