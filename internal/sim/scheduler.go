package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// DecisionMaker chooses one action for an agent given its observation.
// Output that does not fit the action schema is reported by wrapping
// models.ErrMalformedResponse.
type DecisionMaker interface {
	Decide(ctx context.Context, obs models.Observation) (models.Action, error)
}

// Phase is the scheduler's position within a tick.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSelectingAgents
	PhaseCollectingDecisions
	PhaseResolving
	PhaseAdvancing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelectingAgents:
		return "selecting_agents"
	case PhaseCollectingDecisions:
		return "collecting_decisions"
	case PhaseResolving:
		return "resolving"
	case PhaseAdvancing:
		return "advancing"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// Options tune a Scheduler. The zero value is usable.
type Options struct {
	RunID                  string
	MaxConcurrentDecisions int
	DecisionTimeout        time.Duration
	ResolveTimeout         time.Duration
	Logger                 *slog.Logger
	Sink                   RecordSink
}

// Scheduler owns the World for the duration of a run and advances it one
// tick at a time. Decisions are requested concurrently; everything that
// mutates the world happens on the caller's goroutine, in selection order.
type Scheduler struct {
	world     *world.World
	decider   DecisionMaker
	validator *Validator
	router    *Router
	opts      Options
	logger    *slog.Logger
	phase     atomic.Int32
	stats     *Stats
}

func NewScheduler(w *world.World, decider DecisionMaker, resolver PhysicsResolver, opts Options) *Scheduler {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.MaxConcurrentDecisions <= 0 {
		opts.MaxConcurrentDecisions = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run", opts.RunID)
	return &Scheduler{
		world:     w,
		decider:   decider,
		validator: NewValidator(w),
		router:    NewRouter(w, resolver, opts.ResolveTimeout, logger),
		opts:      opts,
		logger:    logger,
		stats:     NewStats(),
	}
}

func (s *Scheduler) RunID() string { return s.opts.RunID }
func (s *Scheduler) Phase() Phase  { return Phase(s.phase.Load()) }
func (s *Scheduler) Stats() *Stats { return s.stats }

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.logger.Debug("phase", "tick", s.world.Tick(), "phase", p.String())
}

// Run executes ticks steps and returns their records in order. Only a done
// ctx stops it early. Record sink failures are logged and the run carries on;
// they are returned together once the last tick has completed.
func (s *Scheduler) Run(ctx context.Context, ticks int) ([]TickRecord, error) {
	if ticks < 0 {
		return nil, oops.Errorf("ticks must be non-negative, got %d", ticks)
	}
	records := make([]TickRecord, 0, ticks)
	var sinkErrs []error
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return records, errors.Join(append(sinkErrs, err)...)
		}
		rec, err := s.Step(ctx)
		records = append(records, rec)
		if err != nil {
			s.logger.Error("record sink failed", "tick", rec.Tick, "err", err)
			sinkErrs = append(sinkErrs, err)
		}
	}
	return records, errors.Join(sinkErrs...)
}

type decision struct {
	action models.Action
	err    error
}

// Step runs one full tick. The returned error is only ever a record sink
// failure; the tick itself always completes and the clock always advances.
func (s *Scheduler) Step(ctx context.Context) (TickRecord, error) {
	tick := s.world.Tick()
	rec := TickRecord{RunID: s.opts.RunID, Tick: tick, Time: s.world.TimeString()}

	s.setPhase(PhaseSelectingAgents)
	ids := s.world.AgentIDs()
	selected := make([]bool, len(ids))
	observations := make([]models.Observation, len(ids))
	for i, id := range ids {
		if s.world.IsLocked(id) {
			continue
		}
		obs, err := s.world.Observe(id)
		if err != nil {
			s.logger.Error("observe failed", "tick", tick, "agent", id, "err", err)
			continue
		}
		selected[i] = true
		observations[i] = obs
	}

	s.setPhase(PhaseCollectingDecisions)
	decisions := s.collect(ctx, selected, observations)

	s.setPhase(PhaseResolving)
	for i, id := range ids {
		var ar AgentRecord
		if selected[i] {
			ar = s.resolve(ctx, id, decisions[i])
		} else {
			ar = s.lockedRecord(id)
		}
		s.logTurn(tick, ar)
		rec.Agents = append(rec.Agents, ar)
	}

	s.setPhase(PhaseAdvancing)
	_, expired := s.world.Advance()
	for _, e := range expired {
		rec.Events = append(rec.Events, Event{Kind: EventLockExpired, Agent: e.Agent, Message: e.Lock.Completion})
	}
	if err := s.world.CheckInvariants(); err != nil {
		s.logger.Error("world invariant violated", "tick", tick, "err", err)
	}
	s.stats.Add(rec)
	s.setPhase(PhaseIdle)

	if s.opts.Sink != nil {
		if err := s.opts.Sink.WriteTick(rec); err != nil {
			return rec, oops.Wrapf(err, "write tick %d", tick)
		}
	}
	return rec, nil
}

// collect asks the decision maker for every selected agent concurrently.
// Each goroutine writes only its own slot.
func (s *Scheduler) collect(ctx context.Context, selected []bool, observations []models.Observation) []decision {
	out := make([]decision, len(selected))
	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentDecisions)
	for i := range selected {
		if !selected[i] {
			continue
		}
		g.Go(func() error {
			dctx := ctx
			if s.opts.DecisionTimeout > 0 {
				var cancel context.CancelFunc
				dctx, cancel = context.WithTimeout(ctx, s.opts.DecisionTimeout)
				defer cancel()
			}
			a, err := s.decider.Decide(dctx, observations[i])
			out[i] = decision{action: a, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Scheduler) resolve(ctx context.Context, agent string, d decision) AgentRecord {
	ar := AgentRecord{Agent: agent, Action: models.Wait("")}
	if d.err != nil {
		ar.Outcome = OutcomeFailed
		ar.Code = collaboratorCode(d.err)
		ar.Error = d.err.Error()
		return ar
	}
	proposed := d.action
	ar.Proposed = &proposed
	if err := proposed.Validate(); err != nil {
		ar.Outcome = OutcomeFailed
		ar.Code = world.MalformedCollaboratorResponse
		ar.Error = err.Error()
		return ar
	}

	adm, err := s.validator.Check(agent, proposed)
	if err != nil {
		ar.Action = proposed
		ar.Outcome = OutcomeRejected
		ar.Code = world.ActionRejected
		ar.Detail = world.CodeOf(err)
		ar.Error = err.Error()
		s.feedback(agent, fmt.Sprintf("You could not %s: %v", proposed.Summary(), err))
		return ar
	}

	res := s.router.Route(ctx, agent, adm)
	ar.Action = proposed
	ar.Outcome = res.Outcome
	ar.Heard = res.Heard
	ar.Resolution = res.Resolution
	ar.Mutations = res.Mutations
	switch res.Outcome {
	case OutcomeFailed:
		// The interaction never happened; the turn counts as a wait.
		ar.Action = models.Wait("")
		ar.Code = res.Code
	case OutcomeRejected:
		ar.Code = world.ActionRejected
		ar.Detail = world.CodeOf(res.Err)
	}
	if res.Err != nil {
		ar.Error = res.Err.Error()
	}
	return ar
}

func (s *Scheduler) lockedRecord(agent string) AgentRecord {
	ar := AgentRecord{Agent: agent, Outcome: OutcomeLocked, Code: world.AgentLocked}
	l, _ := s.world.LockState(agent)
	ar.Action = models.Wait(l.Reason)
	return ar
}

// feedback leaves a note in the actor's own memory so the next decision can
// account for the refusal.
func (s *Scheduler) feedback(agent, text string) {
	if err := s.world.Remember(agent, text); err != nil {
		s.logger.Warn("remember failed", "agent", agent, "err", err)
	}
}

func (s *Scheduler) logTurn(tick uint64, ar AgentRecord) {
	attrs := []any{"tick", tick, "agent", ar.Agent, "action", ar.Action.Summary(), "outcome", string(ar.Outcome)}
	if ar.Code != "" {
		attrs = append(attrs, "code", string(ar.Code))
	}
	if ar.Detail != "" {
		attrs = append(attrs, "detail", string(ar.Detail))
	}
	switch ar.Outcome {
	case OutcomeRejected, OutcomeFailed:
		s.logger.Warn("turn", attrs...)
	default:
		s.logger.Info("turn", attrs...)
	}
}
