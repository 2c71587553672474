package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// PhysicsResolver turns an interaction into world mutation commands.
// Output that does not fit the command schema is reported by wrapping
// models.ErrMalformedResponse.
type PhysicsResolver interface {
	Resolve(ctx context.Context, in models.Interaction) (models.Resolution, error)
}

// Result is what routing one admitted action produced.
type Result struct {
	Outcome    Outcome
	Code       world.Code
	Err        error
	Heard      []string
	Resolution *models.Resolution
	Mutations  []MutationRecord
}

type fastHandler func(r *Router, agent string, a models.Action) Result

// Move, talk and wait never leave the process.
var fastPath = map[models.ActionKind]fastHandler{
	models.ActionMove: routeMove,
	models.ActionTalk: routeTalk,
	models.ActionWait: func(*Router, string, models.Action) Result { return Result{Outcome: OutcomeApplied} },
}

// Router applies admitted actions. Fast-path actions are applied directly;
// interactions go through the physics resolver and its commands are
// re-validated one by one against the current state.
type Router struct {
	world    *world.World
	resolver PhysicsResolver
	timeout  time.Duration
	logger   *slog.Logger
}

func NewRouter(w *world.World, resolver PhysicsResolver, timeout time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{world: w, resolver: resolver, timeout: timeout, logger: logger}
}

// IsFastPath reports whether an action kind is applied without the resolver.
func IsFastPath(k models.ActionKind) bool {
	_, ok := fastPath[k]
	return ok
}

// Route applies one admitted action for agent.
func (r *Router) Route(ctx context.Context, agent string, adm Admission) Result {
	if h := fastPath[adm.Action.Kind]; h != nil {
		return h(r, agent, adm.Action)
	}
	if adm.Action.Kind == models.ActionInteract {
		return r.routeInteract(ctx, agent, adm)
	}
	return Result{
		Outcome: OutcomeRejected,
		Code:    world.ActionRejected,
		Err:     fmt.Errorf("unroutable action %q", adm.Action.Kind),
	}
}

func routeMove(r *Router, agent string, a models.Action) Result {
	if err := r.world.MoveAgent(agent, a.Destination); err != nil {
		return Result{Outcome: OutcomeRejected, Code: world.ActionRejected, Err: err}
	}
	name := a.Destination
	if loc, err := r.world.Graph().Location(a.Destination); err == nil {
		name = loc.View().Name
	}
	r.remember(agent, "You walked to "+name+".")
	return Result{Outcome: OutcomeApplied}
}

func routeTalk(r *Router, agent string, a models.Action) Result {
	heard, err := r.world.Say(agent, a.Message)
	if err != nil {
		return Result{Outcome: OutcomeRejected, Code: world.ActionRejected, Err: err}
	}
	return Result{Outcome: OutcomeApplied, Heard: heard}
}

func (r *Router) routeInteract(ctx context.Context, agent string, adm Admission) Result {
	in, err := r.world.Interaction(agent, adm.Target, adm.Action.Description)
	if err != nil {
		return Result{Outcome: OutcomeRejected, Code: world.ActionRejected, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	res, err := r.resolver.Resolve(ctx, in)
	if err != nil {
		code := collaboratorCode(err)
		r.logger.Warn("physics resolver failed", "agent", agent, "target", adm.Target.ID, "code", code, "err", err)
		return Result{Outcome: OutcomeFailed, Code: code, Err: err}
	}

	// One structurally bad command means the response as a whole cannot be trusted.
	for i, c := range res.Commands {
		if err := c.Validate(); err != nil {
			r.logger.Warn("malformed resolver command", "agent", agent, "index", i, "err", err)
			return Result{
				Outcome:    OutcomeFailed,
				Code:       world.MalformedCollaboratorResponse,
				Err:        err,
				Resolution: &res,
			}
		}
	}

	muts := r.ApplyCommands(res.Commands)
	if res.Message != "" {
		r.remember(agent, res.Message)
	}
	return Result{Outcome: OutcomeApplied, Resolution: &res, Mutations: muts}
}

// ApplyCommands applies commands in order. A command whose precondition no
// longer holds is dropped and recorded; the rest still apply.
func (r *Router) ApplyCommands(cmds []models.Command) []MutationRecord {
	out := make([]MutationRecord, 0, len(cmds))
	for _, c := range cmds {
		m := MutationRecord{Command: c, Summary: c.Summary()}
		code, err := r.apply(c)
		m.Applied = err == nil
		m.Code = code
		if err != nil {
			m.Error = err.Error()
			r.logger.Warn("command dropped", "command", m.Summary, "code", code, "err", err)
		} else {
			r.logger.Debug("command applied", "command", m.Summary)
		}
		out = append(out, m)
	}
	return out
}

func (r *Router) apply(c models.Command) (world.Code, error) {
	var err error
	switch c.Kind {
	case models.CmdUpdateObjectState:
		err = r.world.SetObjectProperty(c.Object, c.Property, *c.Value)
	case models.CmdCreateObject:
		err = r.world.CreateObject(*c.NewObject, *c.Container)
	case models.CmdDestroyObject:
		err = r.world.DestroyObject(c.Object)
	case models.CmdTransferObject:
		err = r.world.TransferObject(c.Object, *c.Container)
	case models.CmdLockAgent:
		var clamped bool
		clamped, err = r.world.LockAgent(c.Agent, c.Duration, c.Reason)
		if err == nil && clamped {
			return world.LockClamped, nil
		}
	case models.CmdBroadcast:
		_, err = r.world.Broadcast(c.Location, c.Message)
	default:
		err = &world.Error{Code: world.MalformedCollaboratorResponse, Msg: "unknown command " + string(c.Kind)}
	}
	if err == nil {
		return "", nil
	}
	code := world.CodeOf(err)
	if code == "" {
		code = world.PreconditionFailed
	}
	return code, err
}

func (r *Router) remember(agent, text string) {
	if err := r.world.Remember(agent, text); err != nil {
		r.logger.Warn("remember failed", "agent", agent, "err", err)
	}
}

// collaboratorCode classifies a collaborator error.
func collaboratorCode(err error) world.Code {
	if errors.Is(err, models.ErrMalformedResponse) {
		return world.MalformedCollaboratorResponse
	}
	return world.CollaboratorUnavailable
}
