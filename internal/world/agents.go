package world

import "github.com/tatianab/agentia/internal/models"

// Lock keeps an agent from acting during ticks From through Until-1.
type Lock struct {
	From       uint64
	Until      uint64
	Reason     string
	Completion string // remembered by the agent when the lock expires
}

// Agent is an autonomous entity. Its inventory is not stored here; it is the
// set of objects whose container is this agent.
type Agent struct {
	models.AgentProfile
	Location string

	lock   *Lock
	memory *Memory
}

// AgentRegistry owns agent placement, locks and memories.
type AgentRegistry struct {
	graph     *Graph
	objects   *ObjectRegistry
	agents    map[string]*Agent
	order     []string
	memoryCap int
}

func NewAgentRegistry(g *Graph, objects *ObjectRegistry, memoryCap int) *AgentRegistry {
	return &AgentRegistry{
		graph:     g,
		objects:   objects,
		agents:    make(map[string]*Agent),
		memoryCap: memoryCap,
	}
}

// Add registers an agent at a location. It is only used while loading.
func (r *AgentRegistry) Add(p models.AgentProfile, location string) error {
	if p.ID == "" {
		return errorf(InvalidScenario, "agent without id")
	}
	if _, dup := r.agents[p.ID]; dup {
		return errorf(InvalidScenario, "duplicate agent %q", p.ID)
	}
	if !r.graph.Exists(location) {
		return errorf(InvalidScenario, "agent %q starts at unknown location %q", p.ID, location)
	}
	r.agents[p.ID] = &Agent{AgentProfile: p, Location: location, memory: NewMemory(r.memoryCap)}
	r.order = append(r.order, p.ID)
	return nil
}

func (r *AgentRegistry) Exists(id string) bool {
	_, ok := r.agents[id]
	return ok
}

// IDs returns agent ids in registration order, which is the per-tick resolution order.
func (r *AgentRegistry) IDs() []string {
	return append([]string(nil), r.order...)
}

func (r *AgentRegistry) Profile(id string) (models.AgentProfile, error) {
	a, err := r.lookup(id)
	if err != nil {
		return models.AgentProfile{}, err
	}
	return a.AgentProfile, nil
}

func (r *AgentRegistry) Locate(id string) (string, error) {
	a, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	return a.Location, nil
}

// Relocate moves an agent along one edge of the graph.
func (r *AgentRegistry) Relocate(id, destination string) error {
	a, err := r.lookup(id)
	if err != nil {
		return err
	}
	ok, err := r.graph.Connected(a.Location, destination)
	if err != nil {
		return err
	}
	if !ok {
		return errorf(InvalidMove, "%q is not connected to %q", destination, a.Location)
	}
	a.Location = destination
	return nil
}

// At returns the agents at a location in registration order.
func (r *AgentRegistry) At(location string) []string {
	var out []string
	for _, id := range r.order {
		if r.agents[id].Location == location {
			out = append(out, id)
		}
	}
	return out
}

// Lock blocks the agent from tick `from` for duration ticks, so the agent
// is locked while tick < from+duration. Negative durations are clamped to
// zero and reported through clamped. An existing longer lock is kept.
func (r *AgentRegistry) Lock(id string, duration int, reason string, from uint64) (clamped bool, err error) {
	a, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	if duration < 0 {
		duration = 0
		clamped = true
	}
	until := from + uint64(duration)
	if a.lock != nil && a.lock.Until >= until {
		return clamped, nil
	}
	if duration == 0 {
		return clamped, nil
	}
	completion := "Finished " + reason + "."
	if reason == "" {
		completion = "You are free to act again."
	}
	if a.lock != nil && a.lock.From < from {
		from = a.lock.From
	}
	a.lock = &Lock{From: from, Until: until, Reason: reason, Completion: completion}
	return clamped, nil
}

// IsLocked reports whether the agent may not act at tick. A lock set during
// tick T starts at T+1, so it never affects the tick that set it.
func (r *AgentRegistry) IsLocked(id string, tick uint64) bool {
	a, ok := r.agents[id]
	return ok && a.lock != nil && a.lock.From <= tick && tick < a.lock.Until
}

// LockState returns the agent's lock, if any.
func (r *AgentRegistry) LockState(id string) (Lock, bool) {
	a, ok := r.agents[id]
	if !ok || a.lock == nil {
		return Lock{}, false
	}
	return *a.lock, true
}

// ExpiredLock pairs an agent with the lock that just ended.
type ExpiredLock struct {
	Agent string
	Lock  Lock
}

// ExpireLocks clears every lock whose Until is at or before tick.
func (r *AgentRegistry) ExpireLocks(tick uint64) []ExpiredLock {
	var out []ExpiredLock
	for _, id := range r.order {
		a := r.agents[id]
		if a.lock != nil && a.lock.Until <= tick {
			out = append(out, ExpiredLock{Agent: id, Lock: *a.lock})
			a.lock = nil
		}
	}
	return out
}

// Inventory returns the ids of the objects the agent holds.
func (r *AgentRegistry) Inventory(id string) ([]string, error) {
	if _, err := r.lookup(id); err != nil {
		return nil, err
	}
	return r.objects.ObjectsIn(models.HeldBy(id)), nil
}

// Remember appends to the agent's memory.
func (r *AgentRegistry) Remember(id string, e models.MemoryEntry) error {
	a, err := r.lookup(id)
	if err != nil {
		return err
	}
	a.memory.Add(e)
	return nil
}

func (r *AgentRegistry) Memory(id string) ([]models.MemoryEntry, error) {
	a, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return a.memory.Entries(), nil
}

func (r *AgentRegistry) lookup(id string) (*Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, errorf(UnknownAgent, "%q", id)
	}
	return a, nil
}
