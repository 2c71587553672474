package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks collaborator output that does not fit the expected schema.
// Collaborators wrap it; the scheduler checks it with errors.Is.
var ErrMalformedResponse = errors.New("malformed collaborator response")

// ActionKind tags the Action variant.
type ActionKind string

const (
	ActionMove     ActionKind = "move"
	ActionTalk     ActionKind = "talk"
	ActionInteract ActionKind = "interact"
	ActionWait     ActionKind = "wait"
)

// Action is one agent's decision for one tick.
// Which fields are meaningful depends on Kind.
type Action struct {
	Kind        ActionKind `json:"type" yaml:"type"`
	Destination string     `json:"destination,omitempty" yaml:"destination,omitempty"` // move
	Message     string     `json:"message,omitempty" yaml:"message,omitempty"`         // talk
	Target      string     `json:"target,omitempty" yaml:"target,omitempty"`           // interact
	Description string     `json:"description,omitempty" yaml:"description,omitempty"` // interact
	Reason      string     `json:"reason,omitempty" yaml:"reason,omitempty"`           // wait
	Reasoning   string     `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

func Move(destination string) Action { return Action{Kind: ActionMove, Destination: destination} }
func Talk(message string) Action     { return Action{Kind: ActionTalk, Message: message} }
func Wait(reason string) Action      { return Action{Kind: ActionWait, Reason: reason} }

func Interact(target, description string) Action {
	return Action{Kind: ActionInteract, Target: target, Description: description}
}

// Validate checks the action's shape. Errors wrap ErrMalformedResponse.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionMove:
		if strings.TrimSpace(a.Destination) == "" {
			return fmt.Errorf("%w: move without destination", ErrMalformedResponse)
		}
	case ActionTalk:
		if strings.TrimSpace(a.Message) == "" {
			return fmt.Errorf("%w: talk without message", ErrMalformedResponse)
		}
	case ActionInteract:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%w: interact without target", ErrMalformedResponse)
		}
	case ActionWait:
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrMalformedResponse, a.Kind)
	}
	return nil
}

// Summary is a one-line human readable rendering.
func (a Action) Summary() string {
	switch a.Kind {
	case ActionMove:
		return "move -> " + a.Destination
	case ActionTalk:
		return fmt.Sprintf("talk %q", a.Message)
	case ActionInteract:
		return fmt.Sprintf("interact %s: %s", a.Target, a.Description)
	case ActionWait:
		if a.Reason != "" {
			return "wait (" + a.Reason + ")"
		}
		return "wait"
	}
	return string(a.Kind)
}
