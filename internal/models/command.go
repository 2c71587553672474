package models

import (
	"fmt"
	"strings"
)

// CommandKind tags the Command variant.
type CommandKind string

const (
	CmdUpdateObjectState CommandKind = "update_object_state"
	CmdCreateObject      CommandKind = "create_object"
	CmdDestroyObject     CommandKind = "destroy_object"
	CmdTransferObject    CommandKind = "transfer_object"
	CmdLockAgent         CommandKind = "lock_agent"
	CmdBroadcast         CommandKind = "broadcast"
)

// Command is one world mutation produced by the physics resolver.
type Command struct {
	Kind      CommandKind `json:"type"`
	Object    string      `json:"object,omitempty"`     // update, destroy, transfer
	Property  string      `json:"property,omitempty"`   // update
	Value     *Value      `json:"value,omitempty"`      // update
	NewObject *ObjectSpec `json:"new_object,omitempty"` // create
	Container *Container  `json:"container,omitempty"`  // create, transfer
	Agent     string      `json:"agent,omitempty"`      // lock
	Duration  int         `json:"duration,omitempty"`   // lock, in ticks
	Reason    string      `json:"reason,omitempty"`     // lock
	Location  string      `json:"location,omitempty"`   // broadcast
	Message   string      `json:"message,omitempty"`    // broadcast
}

func UpdateObjectState(object, property string, v Value) Command {
	return Command{Kind: CmdUpdateObjectState, Object: object, Property: property, Value: &v}
}

func CreateObject(spec ObjectSpec, c Container) Command {
	return Command{Kind: CmdCreateObject, NewObject: &spec, Container: &c}
}

func DestroyObject(object string) Command {
	return Command{Kind: CmdDestroyObject, Object: object}
}

func TransferObject(object string, c Container) Command {
	return Command{Kind: CmdTransferObject, Object: object, Container: &c}
}

func LockAgent(agent string, duration int, reason string) Command {
	return Command{Kind: CmdLockAgent, Agent: agent, Duration: duration, Reason: reason}
}

func Broadcast(location, message string) Command {
	return Command{Kind: CmdBroadcast, Location: location, Message: message}
}

// Validate checks the command's shape, not whether its targets exist.
// Errors wrap ErrMalformedResponse.
func (c Command) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, c.Kind, fmt.Sprintf(format, args...))
	}
	switch c.Kind {
	case CmdUpdateObjectState:
		if blank(c.Object) || blank(c.Property) {
			return bad("object and property are required")
		}
		if c.Value == nil || !c.Value.Valid() {
			return bad("value must be a string, number or boolean")
		}
	case CmdCreateObject:
		if c.NewObject == nil || blank(c.NewObject.ID) {
			return bad("new_object.id is required")
		}
		for k, v := range c.NewObject.Properties {
			if !v.Valid() {
				return bad("property %q has an invalid value", k)
			}
		}
		if c.Container == nil {
			return bad("container is required")
		}
		if err := c.Container.Validate(); err != nil {
			return bad("%v", err)
		}
	case CmdDestroyObject:
		if blank(c.Object) {
			return bad("object is required")
		}
	case CmdTransferObject:
		if blank(c.Object) {
			return bad("object is required")
		}
		if c.Container == nil {
			return bad("container is required")
		}
		if err := c.Container.Validate(); err != nil {
			return bad("%v", err)
		}
	case CmdLockAgent:
		if blank(c.Agent) {
			return bad("agent is required")
		}
	case CmdBroadcast:
		if blank(c.Location) || blank(c.Message) {
			return bad("location and message are required")
		}
	default:
		return fmt.Errorf("%w: unknown command type %q", ErrMalformedResponse, c.Kind)
	}
	return nil
}

// Summary is a one-line human readable rendering.
func (c Command) Summary() string {
	switch c.Kind {
	case CmdUpdateObjectState:
		v := "<nil>"
		if c.Value != nil {
			v = c.Value.String()
		}
		return fmt.Sprintf("update %s.%s = %s", c.Object, c.Property, v)
	case CmdCreateObject:
		id := ""
		if c.NewObject != nil {
			id = c.NewObject.ID
		}
		return fmt.Sprintf("create %s in %s", id, containerString(c.Container))
	case CmdDestroyObject:
		return "destroy " + c.Object
	case CmdTransferObject:
		return fmt.Sprintf("transfer %s to %s", c.Object, containerString(c.Container))
	case CmdLockAgent:
		return fmt.Sprintf("lock %s for %d ticks", c.Agent, c.Duration)
	case CmdBroadcast:
		return fmt.Sprintf("broadcast at %s: %q", c.Location, c.Message)
	}
	return string(c.Kind)
}

func containerString(c *Container) string {
	if c == nil {
		return "nowhere"
	}
	return c.String()
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
