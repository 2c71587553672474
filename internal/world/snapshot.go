package world

import "github.com/tatianab/agentia/internal/models"

// Snapshot is a read-only copy of the whole world, grouped by location.
type Snapshot struct {
	Tick      uint64             `json:"tick"`
	Time      string             `json:"time"`
	Locations []LocationSnapshot `json:"locations"`
}

type LocationSnapshot struct {
	models.LocationView
	Connections []string            `json:"connections"`
	Agents      []AgentSnapshot     `json:"agents"`
	Objects     []models.ObjectView `json:"objects"`
}

type AgentSnapshot struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Locked      bool                `json:"locked"`
	LockedUntil uint64              `json:"locked_until,omitempty"`
	LockReason  string              `json:"lock_reason,omitempty"`
	Inventory   []models.ObjectView `json:"inventory"`
}

// Snapshot copies the current state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Tick: w.clock.Tick(), Time: w.clock.String()}
	for _, locID := range w.graph.IDs() {
		loc, _ := w.graph.Location(locID)
		neighbors, _ := w.graph.Neighbors(locID)
		ls := LocationSnapshot{
			LocationView: loc.View(),
			Connections:  neighbors,
			Objects:      w.views(w.objects.ObjectsIn(models.AtLocation(locID))),
		}
		for _, id := range w.agents.At(locID) {
			p, _ := w.agents.Profile(id)
			as := AgentSnapshot{
				ID:        id,
				Name:      p.DisplayName(),
				Locked:    w.IsLocked(id),
				Inventory: w.views(w.objects.ObjectsIn(models.HeldBy(id))),
			}
			if l, ok := w.agents.LockState(id); ok {
				as.LockedUntil = l.Until
				as.LockReason = l.Reason
			}
			ls.Agents = append(ls.Agents, as)
		}
		s.Locations = append(s.Locations, ls)
	}
	return s
}
