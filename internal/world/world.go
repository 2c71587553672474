package world

import (
	"fmt"
	"strings"
	"time"

	"github.com/tatianab/agentia/internal/models"
)

// World is the single owned aggregate of a run: the graph, the registries
// and the clock. It is not safe for concurrent use; the scheduler is its
// only writer and hands collaborators snapshots instead.
type World struct {
	graph   *Graph
	objects *ObjectRegistry
	agents  *AgentRegistry
	clock   *Clock
}

type options struct {
	memoryCap int
	start     time.Time
	step      time.Duration
}

// Option configures New.
type Option func(*options)

// WithMemoryCapacity sets the size of every agent's memory ring buffer.
func WithMemoryCapacity(n int) Option {
	return func(o *options) { o.memoryCap = n }
}

// WithClock sets the simulated start time and the duration of one tick.
func WithClock(start time.Time, step time.Duration) Option {
	return func(o *options) {
		o.start = start
		o.step = step
	}
}

// New builds a World from a scenario. Any structural problem (dangling
// connection, unknown placement, duplicate id, invalid property value) is
// returned as an InvalidScenario error and the run must not start.
func New(s *models.Scenario, opts ...Option) (*World, error) {
	o := options{memoryCap: DefaultMemoryCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if s == nil {
		return nil, errorf(InvalidScenario, "nil scenario")
	}

	g, err := NewGraph(s.Locations)
	if err != nil {
		return nil, err
	}
	objects := NewObjectRegistry()
	agents := NewAgentRegistry(g, objects, o.memoryCap)
	w := &World{
		graph:   g,
		objects: objects,
		agents:  agents,
		clock:   NewClock(o.start, o.step),
	}

	for _, a := range s.Agents {
		if err := agents.Add(a.AgentProfile, a.Location); err != nil {
			return nil, err
		}
	}
	for _, d := range s.Objects {
		if d.Location != "" && d.Holder != "" {
			return nil, errorf(InvalidScenario, "object %q has both a location and a holder", d.ID)
		}
		c := d.Container()
		if !w.ContainerExists(c) {
			return nil, errorf(InvalidScenario, "object %q placed in unknown container %s", d.ID, c)
		}
		obj := Object{ID: d.ID, Name: d.Name, Properties: d.Properties, Mechanics: d.Mechanics}
		if err := objects.Place(obj, c); err != nil {
			return nil, errorf(InvalidScenario, "object %q: %v", d.ID, err)
		}
	}
	return w, nil
}

// Graph returns the immutable topology.
func (w *World) Graph() *Graph { return w.graph }

func (w *World) Tick() uint64       { return w.clock.Tick() }
func (w *World) Now() time.Time     { return w.clock.Now() }
func (w *World) TimeString() string { return w.clock.String() }

func (w *World) AgentIDs() []string                             { return w.agents.IDs() }
func (w *World) AgentExists(id string) bool                     { return w.agents.Exists(id) }
func (w *World) Locate(id string) (string, error)               { return w.agents.Locate(id) }
func (w *World) AgentsAt(location string) []string              { return w.agents.At(location) }
func (w *World) Inventory(id string) ([]string, error)          { return w.agents.Inventory(id) }
func (w *World) Memory(id string) ([]models.MemoryEntry, error) { return w.agents.Memory(id) }
func (w *World) LockState(id string) (Lock, bool)               { return w.agents.LockState(id) }

// IsLocked reports whether the agent is locked at the current tick.
func (w *World) IsLocked(id string) bool { return w.agents.IsLocked(id, w.clock.Tick()) }

func (w *World) Object(id string) (Object, error)   { return w.objects.Get(id) }
func (w *World) ObjectExists(id string) bool        { return w.objects.Exists(id) }
func (w *World) ObjectsAt(location string) []string { return w.objects.ObjectsIn(models.AtLocation(location)) }

// ContainerExists reports whether c names an existing location or agent.
func (w *World) ContainerExists(c models.Container) bool {
	switch c.Kind {
	case models.ContainerLocation:
		return w.graph.Exists(c.ID)
	case models.ContainerAgent:
		return w.agents.Exists(c.ID)
	}
	return false
}

// ResolveReachable finds the object an agent means by target: an id or a
// case-insensitive display name, among the objects at the agent's location
// and in its inventory.
func (w *World) ResolveReachable(agent, target string) (Object, error) {
	loc, err := w.agents.Locate(agent)
	if err != nil {
		return Object{}, err
	}
	reachable := append(w.objects.ObjectsIn(models.AtLocation(loc)), w.objects.ObjectsIn(models.HeldBy(agent))...)
	for _, id := range reachable {
		if id == target {
			return w.objects.Get(id)
		}
	}
	for _, id := range reachable {
		o, _ := w.objects.Get(id)
		if o.Name != "" && strings.EqualFold(o.Name, strings.TrimSpace(target)) {
			return o, nil
		}
	}
	if w.objects.Exists(target) {
		return Object{}, errorf(NotReachable, "%q is not here", target)
	}
	return Object{}, errorf(UnknownObject, "%q", target)
}

// Observe builds the decision context for an agent. The result shares no
// memory with the world.
func (w *World) Observe(agent string) (models.Observation, error) {
	profile, err := w.agents.Profile(agent)
	if err != nil {
		return models.Observation{}, err
	}
	locID, _ := w.agents.Locate(agent)
	loc, err := w.graph.Location(locID)
	if err != nil {
		return models.Observation{}, err
	}
	neighbors, _ := w.graph.Neighbors(locID)
	conns := make([]models.LocationView, 0, len(neighbors))
	for _, id := range neighbors {
		n, _ := w.graph.Location(id)
		conns = append(conns, n.View())
	}
	var people []string
	for _, id := range w.agents.At(locID) {
		if id != agent {
			people = append(people, id)
		}
	}
	memory, _ := w.agents.Memory(agent)
	return models.Observation{
		Tick:        w.clock.Tick(),
		Time:        w.clock.String(),
		Agent:       profile,
		Location:    loc.View(),
		Connections: conns,
		Objects:     w.views(w.objects.ObjectsIn(models.AtLocation(locID))),
		Inventory:   w.views(w.objects.ObjectsIn(models.HeldBy(agent))),
		People:      people,
		Memory:      memory,
	}, nil
}

// Interaction builds the physics resolver's context for agent acting on target.
func (w *World) Interaction(agent string, target Object, description string) (models.Interaction, error) {
	profile, err := w.agents.Profile(agent)
	if err != nil {
		return models.Interaction{}, err
	}
	locID, _ := w.agents.Locate(agent)
	loc, err := w.graph.Location(locID)
	if err != nil {
		return models.Interaction{}, err
	}
	var witnesses []string
	for _, id := range w.agents.At(locID) {
		if id != agent {
			witnesses = append(witnesses, id)
		}
	}
	return models.Interaction{
		Tick:        w.clock.Tick(),
		Time:        w.clock.String(),
		Actor:       profile,
		Inventory:   w.views(w.objects.ObjectsIn(models.HeldBy(agent))),
		Target:      target.View(),
		Mechanics:   target.Mechanics,
		Location:    loc.View(),
		Witnesses:   witnesses,
		Description: description,
		Agents:      w.agents.IDs(),
		Locations:   w.graph.IDs(),
	}, nil
}

func (w *World) views(ids []string) []models.ObjectView {
	out := make([]models.ObjectView, 0, len(ids))
	for _, id := range ids {
		if o, err := w.objects.Get(id); err == nil {
			out = append(out, o.View())
		}
	}
	return out
}

// MoveAgent relocates an agent along one edge.
func (w *World) MoveAgent(agent, destination string) error {
	if !w.graph.Exists(destination) {
		return errorf(UnknownLocation, "%q", destination)
	}
	return w.agents.Relocate(agent, destination)
}

// Say delivers a message to the agents at the speaker's location right now
// and returns who heard it.
func (w *World) Say(agent, message string) ([]string, error) {
	loc, err := w.agents.Locate(agent)
	if err != nil {
		return nil, err
	}
	profile, _ := w.agents.Profile(agent)
	var heard []string
	for _, id := range w.agents.At(loc) {
		if id == agent {
			continue
		}
		w.remember(id, fmt.Sprintf("You heard %s say: %q", profile.DisplayName(), message))
		heard = append(heard, id)
	}
	w.remember(agent, fmt.Sprintf("You said: %q", message))
	return heard, nil
}

// CreateObject adds a new object to an existing container.
func (w *World) CreateObject(spec models.ObjectSpec, c models.Container) error {
	if err := w.checkContainer(c); err != nil {
		return err
	}
	obj := Object{ID: spec.ID, Name: spec.Name, Properties: spec.Properties, Mechanics: spec.Mechanics}
	return w.objects.Place(obj, c)
}

// DestroyObject removes an object from every index.
func (w *World) DestroyObject(id string) error {
	return w.objects.Remove(id)
}

// TransferObject moves an existing object to an existing container.
func (w *World) TransferObject(id string, c models.Container) error {
	if !w.objects.Exists(id) {
		return errorf(PreconditionFailed, "object %q does not exist", id)
	}
	if err := w.checkContainer(c); err != nil {
		return err
	}
	return w.objects.Move(id, c)
}

// SetObjectProperty writes one property of an existing object.
func (w *World) SetObjectProperty(id, property string, v models.Value) error {
	return w.objects.Set(id, property, v)
}

// LockAgent locks an agent for duration ticks starting with the next tick,
// so a lock applied while resolving tick T blocks ticks T+1 through T+duration.
func (w *World) LockAgent(agent string, duration int, reason string) (clamped bool, err error) {
	return w.agents.Lock(agent, duration, reason, w.clock.Tick()+1)
}

// Broadcast delivers a message to every agent at a location.
func (w *World) Broadcast(location, message string) ([]string, error) {
	if !w.graph.Exists(location) {
		return nil, errorf(UnknownLocation, "%q", location)
	}
	listeners := w.agents.At(location)
	for _, id := range listeners {
		w.remember(id, message)
	}
	return listeners, nil
}

// Remember appends text to an agent's memory at the current tick.
func (w *World) Remember(agent, text string) error {
	return w.agents.Remember(agent, models.MemoryEntry{Tick: w.clock.Tick(), Text: text})
}

func (w *World) remember(agent, text string) {
	_ = w.Remember(agent, text)
}

// Advance moves the clock one tick forward and expires locks whose Until is
// the new tick. Expired locks leave their completion message in memory.
func (w *World) Advance() (uint64, []ExpiredLock) {
	tick := w.clock.Advance()
	expired := w.agents.ExpireLocks(tick)
	for _, e := range expired {
		w.remember(e.Agent, e.Lock.Completion)
	}
	return tick, expired
}

func (w *World) checkContainer(c models.Container) error {
	if err := c.Validate(); err != nil {
		return errorf(PreconditionFailed, "%v", err)
	}
	if w.ContainerExists(c) {
		return nil
	}
	if c.Kind == models.ContainerAgent {
		return errorf(UnknownAgent, "%q", c.ID)
	}
	return errorf(UnknownLocation, "%q", c.ID)
}

// CheckInvariants verifies that every object is indexed under exactly its
// own container and that the container exists.
func (w *World) CheckInvariants() error {
	seen := make(map[string]models.Container)
	for c, set := range w.objects.byContainer {
		if !w.ContainerExists(c) {
			return fmt.Errorf("dangling container %s", c)
		}
		for id := range set {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("object %q listed in %s and %s", id, prev, c)
			}
			seen[id] = c
		}
	}
	for id, o := range w.objects.objects {
		if o.Container.IsZero() {
			return fmt.Errorf("live object %q has no container", id)
		}
		if seen[id] != o.Container {
			return fmt.Errorf("object %q says %s but is indexed under %s", id, o.Container, seen[id])
		}
	}
	if len(seen) != len(w.objects.objects) {
		return fmt.Errorf("index lists %d objects, registry holds %d", len(seen), len(w.objects.objects))
	}
	return nil
}
