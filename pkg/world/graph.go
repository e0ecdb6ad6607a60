package world

import (
	"encoding/json"
	"sort"
)

// Graph is the validated, fully linked in-memory world. It owns every
// entity; consumers address entities by id and must not cache pointers
// across turns, since structural mutation (an item changing containers)
// can happen any turn.
type Graph struct {
	Metadata        Metadata
	Locations       map[string]*Location
	Actors          map[string]*Actor
	Items           map[string]*Item
	Locks           map[string]*Lock
	Parts           map[string]*Part
	Commitments     map[string]*Entity
	ScheduledEvents map[string]*Entity
	Gossip          map[string]*Entity
	Spreads         map[string]*Entity

	extra map[string]json.RawMessage
	index map[string]*Entity
}

// Lookup returns the shared entity view for any id, regardless of kind.
func (g *Graph) Lookup(id string) (*Entity, bool) {
	e, ok := g.index[id]
	return e, ok
}

// Contains reports whether any entity has the given id.
func (g *Graph) Contains(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Location returns the location with the given id, or nil.
func (g *Graph) Location(id string) *Location { return g.Locations[id] }

// Actor returns the actor with the given id, or nil. The "player" sentinel
// resolves to the player actor.
func (g *Graph) Actor(id string) *Actor { return g.Actors[id] }

// Item returns the item with the given id, or nil.
func (g *Graph) Item(id string) *Item { return g.Items[id] }

// Lock returns the lock with the given id, or nil.
func (g *Graph) Lock(id string) *Lock { return g.Locks[id] }

// Part returns the part with the given id, or nil.
func (g *Graph) Part(id string) *Part { return g.Parts[id] }

// Player returns the player actor.
func (g *Graph) Player() *Actor { return g.Actors[PlayerID] }

// ActorIDs returns all actor ids in sorted order, for deterministic
// iteration during turn phases.
func (g *Graph) ActorIDs() []string {
	ids := make([]string, 0, len(g.Actors))
	for id := range g.Actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ItemIDs returns all item ids in sorted order.
func (g *Graph) ItemIDs() []string {
	ids := make([]string, 0, len(g.Items))
	for id := range g.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ActorsAt returns the actors whose location is the given id, sorted by id.
func (g *Graph) ActorsAt(locationID string) []*Actor {
	var out []*Actor
	for _, id := range g.ActorIDs() {
		if g.Actors[id].Location == locationID {
			out = append(out, g.Actors[id])
		}
	}
	return out
}

// ItemsIn returns the items contained by the given location, actor or item
// id, sorted by id. The "player" sentinel matches the player actor's
// inventory.
func (g *Graph) ItemsIn(containerID string) []*Item {
	var out []*Item
	for _, id := range g.ItemIDs() {
		if g.Items[id].Location == containerID {
			out = append(out, g.Items[id])
		}
	}
	return out
}

// Virtual returns the virtual-entity collection for the given kind, or nil
// for non-virtual kinds.
func (g *Graph) Virtual(kind Kind) map[string]*Entity {
	switch kind {
	case KindCommitment:
		return g.Commitments
	case KindScheduledEvent:
		return g.ScheduledEvents
	case KindGossip:
		return g.Gossip
	case KindSpread:
		return g.Spreads
	}
	return nil
}

// VirtualIDs returns sorted ids for the given virtual collection.
func (g *Graph) VirtualIDs(kind Kind) []string {
	coll := g.Virtual(kind)
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot reassembles a Document from the graph's current state. Because
// the graph mutates entities in place, the snapshot reflects the live
// session and can be persisted and rebuilt later.
func (g *Graph) Snapshot() *Document {
	return &Document{
		Metadata:        g.Metadata,
		Locations:       g.Locations,
		Items:           g.Items,
		Actors:          g.Actors,
		Locks:           g.Locks,
		Parts:           g.Parts,
		Commitments:     g.Commitments,
		ScheduledEvents: g.ScheduledEvents,
		Gossip:          g.Gossip,
		Spreads:         g.Spreads,
		Extra:           g.extra,
	}
}
