package models

// Scenario is the initial world definition consumed once before the first tick.
type Scenario struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Locations   []LocationDef `yaml:"locations" json:"locations"`
	Objects     []ObjectDef   `yaml:"objects,omitempty" json:"objects,omitempty"`
	Agents      []AgentDef    `yaml:"agents" json:"agents"`
}

// LocationDef declares a location node and its outgoing connections.
// Connections are bidirectional; listing an edge on either side is enough.
type LocationDef struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	ConnectedTo []string `yaml:"connected_to,omitempty" json:"connected_to,omitempty"`
}

// ObjectSpec is the container-independent part of an object definition.
type ObjectSpec struct {
	ID         string           `yaml:"id" json:"id"`
	Name       string           `yaml:"name,omitempty" json:"name,omitempty"`
	Properties map[string]Value `yaml:"properties,omitempty" json:"properties,omitempty"`
	Mechanics  string           `yaml:"mechanics,omitempty" json:"mechanics,omitempty"` // hidden rules, physics resolver only
}

// ObjectDef places an object either at a location or in an agent's inventory.
type ObjectDef struct {
	ObjectSpec `yaml:",inline"`
	Location   string `yaml:"location,omitempty" json:"location,omitempty"`
	Holder     string `yaml:"holder,omitempty" json:"holder,omitempty"` // agent id
}

// Container resolves the initial placement of the object.
func (d ObjectDef) Container() Container {
	if d.Holder != "" {
		return HeldBy(d.Holder)
	}
	return AtLocation(d.Location)
}

// AgentProfile describes who an agent is. It is handed to the decision maker verbatim.
type AgentProfile struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Age         int    `yaml:"age,omitempty" json:"age,omitempty"`
	Occupation  string `yaml:"occupation,omitempty" json:"occupation,omitempty"`
	Personality string `yaml:"personality,omitempty" json:"personality,omitempty"`
	Background  string `yaml:"background,omitempty" json:"background,omitempty"`
	Goal        string `yaml:"goal,omitempty" json:"goal,omitempty"`
}

// DisplayName falls back to the id when no name is set.
func (p AgentProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// AgentDef places an agent at its starting location.
type AgentDef struct {
	AgentProfile `yaml:",inline"`
	Location     string `yaml:"location" json:"location"`
}

// MemoryEntry is one remembered observation or event.
type MemoryEntry struct {
	Tick uint64 `json:"tick"`
	Text string `json:"text"`
}

// ObjectView is a read-only copy of an object's visible state.
type ObjectView struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Properties map[string]Value `json:"properties,omitempty"`
}

// LocationView is a read-only copy of a location's descriptive fields.
type LocationView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Observation is the context handed to the decision maker for one agent and one tick.
// It is a snapshot: nothing in it aliases live world state.
type Observation struct {
	Tick        uint64         `json:"tick"`
	Time        string         `json:"time"`
	Agent       AgentProfile   `json:"agent"`
	Location    LocationView   `json:"location"`
	Connections []LocationView `json:"connections"`
	Objects     []ObjectView   `json:"objects"`
	Inventory   []ObjectView   `json:"inventory"`
	People      []string       `json:"people"`
	Memory      []MemoryEntry  `json:"memory"`
}

// Interaction is the context handed to the physics resolver for one Interact action.
type Interaction struct {
	Tick        uint64       `json:"tick"`
	Time        string       `json:"time"`
	Actor       AgentProfile `json:"actor"`
	Inventory   []ObjectView `json:"inventory"`
	Target      ObjectView   `json:"target"`
	Mechanics   string       `json:"mechanics,omitempty"`
	Location    LocationView `json:"location"`
	Witnesses   []string     `json:"witnesses"`
	Description string       `json:"description"`
	Agents      []string     `json:"agents"`
	Locations   []string     `json:"locations"`
}

// Resolution is what the physics resolver returns for an Interaction.
// An empty command list means nothing happens.
type Resolution struct {
	Reasoning string    `json:"reasoning,omitempty"`
	Message   string    `json:"message,omitempty"`
	Commands  []Command `json:"commands"`
}
