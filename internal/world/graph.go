package world

import (
	"sort"

	"github.com/tatianab/agentia/internal/models"
)

// Location is a node in the world graph.
type Location struct {
	ID          string
	Name        string
	Description string
	neighbors   map[string]struct{}
}

// View returns the descriptive part of the location.
func (l Location) View() models.LocationView {
	name := l.Name
	if name == "" {
		name = l.ID
	}
	return models.LocationView{ID: l.ID, Name: name, Description: l.Description}
}

// Graph is the static topology of a run. It is immutable once built and safe
// for concurrent readers.
type Graph struct {
	locations map[string]*Location
	order     []string
}

// NewGraph builds the graph from location definitions. Connections are made
// bidirectional. Duplicate ids, self-connections and connections to undefined
// locations are structural errors.
func NewGraph(defs []models.LocationDef) (*Graph, error) {
	g := &Graph{locations: make(map[string]*Location, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, errorf(InvalidScenario, "location without id")
		}
		if _, dup := g.locations[d.ID]; dup {
			return nil, errorf(InvalidScenario, "duplicate location %q", d.ID)
		}
		g.locations[d.ID] = &Location{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			neighbors:   make(map[string]struct{}),
		}
		g.order = append(g.order, d.ID)
	}
	for _, d := range defs {
		for _, to := range d.ConnectedTo {
			if to == d.ID {
				return nil, errorf(InvalidScenario, "location %q connects to itself", d.ID)
			}
			target, ok := g.locations[to]
			if !ok {
				return nil, errorf(InvalidScenario, "location %q connects to unknown location %q", d.ID, to)
			}
			g.locations[d.ID].neighbors[to] = struct{}{}
			target.neighbors[d.ID] = struct{}{}
		}
	}
	return g, nil
}

func (g *Graph) Exists(id string) bool {
	_, ok := g.locations[id]
	return ok
}

// Connected reports whether a and b share an edge. It is symmetric.
func (g *Graph) Connected(a, b string) (bool, error) {
	la, err := g.lookup(a)
	if err != nil {
		return false, err
	}
	if !g.Exists(b) {
		return false, errorf(UnknownLocation, "%q", b)
	}
	_, ok := la.neighbors[b]
	return ok, nil
}

// Neighbors returns the ids connected to a, sorted.
func (g *Graph) Neighbors(a string) ([]string, error) {
	l, err := g.lookup(a)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(l.neighbors))
	for id := range l.neighbors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (g *Graph) Location(id string) (Location, error) {
	l, err := g.lookup(id)
	if err != nil {
		return Location{}, err
	}
	return *l, nil
}

// IDs returns location ids in definition order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

func (g *Graph) lookup(id string) (*Location, error) {
	l, ok := g.locations[id]
	if !ok {
		return nil, errorf(UnknownLocation, "%q", id)
	}
	return l, nil
}
