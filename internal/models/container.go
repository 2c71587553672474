package models

import "fmt"

// ContainerKind says what holds an object.
type ContainerKind string

const (
	ContainerLocation ContainerKind = "location"
	ContainerAgent    ContainerKind = "agent"
)

// Container is the location or agent inventory currently holding an object.
// The zero Container means the object does not exist.
type Container struct {
	Kind ContainerKind `yaml:"kind" json:"kind"`
	ID   string        `yaml:"id" json:"id"`
}

func AtLocation(id string) Container  { return Container{Kind: ContainerLocation, ID: id} }
func HeldBy(agentID string) Container { return Container{Kind: ContainerAgent, ID: agentID} }

func (c Container) IsZero() bool { return c == Container{} }

func (c Container) String() string {
	if c.IsZero() {
		return "nowhere"
	}
	return string(c.Kind) + ":" + c.ID
}

// Validate checks the container is well formed. It does not check that the id exists.
func (c Container) Validate() error {
	switch c.Kind {
	case ContainerLocation, ContainerAgent:
	default:
		return fmt.Errorf("unknown container kind %q", c.Kind)
	}
	if c.ID == "" {
		return fmt.Errorf("%s container without id", c.Kind)
	}
	return nil
}
