// Package state provides the narrow read/mutate facade behaviors use
// instead of touching the world graph directly. The accessor never copies
// entities; it exposes controlled lookup and mutation over graph storage.
// Behaviors re-fetch entities by id on every invocation rather than holding
// references across turns.
package state

import (
	"fmt"

	"github.com/tbranagh/storyloom/pkg/world"
)

// Accessor wraps a validated graph. The turn pipeline guarantees purely
// sequential access within a turn, so no locking is needed here.
type Accessor struct {
	graph *world.Graph
}

// New creates an accessor over a validated graph.
func New(g *world.Graph) *Accessor {
	return &Accessor{graph: g}
}

// Graph exposes the underlying graph for read-only iteration.
func (a *Accessor) Graph() *world.Graph {
	return a.graph
}

// Actor returns the actor with the given id.
func (a *Accessor) Actor(id string) (*world.Actor, error) {
	if actor := a.graph.Actor(id); actor != nil {
		return actor, nil
	}
	return nil, fmt.Errorf("no actor with id %q", id)
}

// Item returns the item with the given id.
func (a *Accessor) Item(id string) (*world.Item, error) {
	if item := a.graph.Item(id); item != nil {
		return item, nil
	}
	return nil, fmt.Errorf("no item with id %q", id)
}

// Location returns the location with the given id.
func (a *Accessor) Location(id string) (*world.Location, error) {
	if loc := a.graph.Location(id); loc != nil {
		return loc, nil
	}
	return nil, fmt.Errorf("no location with id %q", id)
}

// Entity returns the shared entity view for any id.
func (a *Accessor) Entity(id string) (*world.Entity, error) {
	if e, ok := a.graph.Lookup(id); ok {
		return e, nil
	}
	return nil, fmt.Errorf("no entity with id %q", id)
}

// Player returns the player actor.
func (a *Accessor) Player() *world.Actor {
	return a.graph.Player()
}

// SetEntityWhere moves an actor or item to a new container. The
// destination must be an existing location, actor, item, or the "player"
// sentinel; the graph was validated at load, and this is the one mutation
// path that could re-introduce a dangling reference at runtime.
func (a *Accessor) SetEntityWhere(id, destination string) error {
	if destination != world.PlayerID && !a.graph.Contains(destination) {
		return fmt.Errorf("destination %q does not exist", destination)
	}
	if actor := a.graph.Actor(id); actor != nil {
		actor.Location = destination
		return nil
	}
	if item := a.graph.Item(id); item != nil {
		item.Location = destination
		return nil
	}
	return fmt.Errorf("no movable entity with id %q", id)
}

// Damage lowers an actor's health by n, flooring at zero.
func (a *Accessor) Damage(id string, n int) error {
	actor, err := a.Actor(id)
	if err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	actor.Health -= n
	if actor.Health < 0 {
		actor.Health = 0
	}
	return nil
}

// Heal raises an actor's health by n, capped at max health when set.
func (a *Accessor) Heal(id string, n int) error {
	actor, err := a.Actor(id)
	if err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	actor.Health += n
	if actor.MaxHealth > 0 && actor.Health > actor.MaxHealth {
		actor.Health = actor.MaxHealth
	}
	return nil
}
