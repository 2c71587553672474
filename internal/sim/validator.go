package sim

import (
	"github.com/tatianab/agentia/internal/models"
	"github.com/tatianab/agentia/internal/world"
)

// Admission is an action that passed validation, with its resolved target.
type Admission struct {
	Action models.Action
	Target world.Object // interact only
}

// Validator decides whether an action is admissible against the current
// world state. It never mutates the world.
type Validator struct {
	world *world.World
}

func NewValidator(w *world.World) *Validator {
	return &Validator{world: w}
}

// Check returns the admitted action or a coded error explaining the
// rejection. The caller records rejections as ActionRejected with the
// error's code as detail.
func (v *Validator) Check(agent string, a models.Action) (Admission, error) {
	if !v.world.AgentExists(agent) {
		return Admission{}, &world.Error{Code: world.UnknownAgent, Msg: agent}
	}
	if err := a.Validate(); err != nil {
		return Admission{}, &world.Error{Code: world.MalformedCollaboratorResponse, Msg: err.Error()}
	}
	if a.Kind == models.ActionWait {
		return Admission{Action: a}, nil
	}
	if v.world.IsLocked(agent) {
		l, _ := v.world.LockState(agent)
		return Admission{}, &world.Error{Code: world.AgentLocked, Msg: l.Reason}
	}

	switch a.Kind {
	case models.ActionMove:
		if !v.world.Graph().Exists(a.Destination) {
			return Admission{}, &world.Error{Code: world.UnknownLocation, Msg: a.Destination}
		}
		from, _ := v.world.Locate(agent)
		ok, err := v.world.Graph().Connected(from, a.Destination)
		if err != nil {
			return Admission{}, err
		}
		if !ok {
			return Admission{}, &world.Error{Code: world.InvalidMove, Msg: from + " is not connected to " + a.Destination}
		}
	case models.ActionInteract:
		target, err := v.world.ResolveReachable(agent, a.Target)
		if err != nil {
			return Admission{}, err
		}
		return Admission{Action: a, Target: target}, nil
	}
	return Admission{Action: a}, nil
}
