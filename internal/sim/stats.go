package sim

import (
	"fmt"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// Stats accumulates run statistics from tick records, so a replayed run
// produces the same numbers as the original.
type Stats struct {
	Ticks              int                       `json:"ticks"`
	Actions            map[models.ActionKind]int `json:"actions"`
	PerAgent           map[string]int            `json:"per_agent"`
	LockedTurns        int                       `json:"locked_turns"`
	Rejections         map[world.Code]int        `json:"rejections"`
	CollaboratorErrors map[world.Code]int        `json:"collaborator_errors"`
	ResolverCalls      int                       `json:"resolver_calls"`
	Mutations          int                       `json:"mutations"`
	DroppedCommands    int                       `json:"dropped_commands"`
	Notable            []string                  `json:"notable,omitempty"`
}

func NewStats() *Stats {
	return &Stats{
		Actions:            make(map[models.ActionKind]int),
		PerAgent:           make(map[string]int),
		Rejections:         make(map[world.Code]int),
		CollaboratorErrors: make(map[world.Code]int),
	}
}

// StatsOf folds a finished run.
func StatsOf(records []TickRecord) *Stats {
	s := NewStats()
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add folds one tick record into the totals.
func (s *Stats) Add(rec TickRecord) {
	s.Ticks++
	for _, ar := range rec.Agents {
		switch ar.Outcome {
		case OutcomeLocked:
			s.LockedTurns++
			continue
		case OutcomeRejected:
			s.Rejections[ar.Detail]++
		case OutcomeFailed:
			s.CollaboratorErrors[ar.Code]++
		case OutcomeApplied:
			s.Actions[ar.Action.Kind]++
			s.PerAgent[ar.Agent]++
		}
		if p := ar.Proposed; p != nil && p.Kind == models.ActionInteract && p.Validate() == nil && ar.Outcome != OutcomeRejected {
			s.ResolverCalls++
		}
		for _, m := range ar.Mutations {
			if !m.Applied {
				s.DroppedCommands++
				continue
			}
			s.Mutations++
			switch m.Command.Kind {
			case models.CmdCreateObject, models.CmdDestroyObject, models.CmdBroadcast:
				s.Notable = append(s.Notable, fmt.Sprintf("tick %d: %s (%s)", rec.Tick, m.Summary, ar.Agent))
			}
		}
	}
}

// TotalActions is the number of turns that were applied.
func (s *Stats) TotalActions() int {
	n := 0
	for _, c := range s.Actions {
		n += c
	}
	return n
}
