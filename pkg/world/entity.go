package world

import "encoding/json"

// Kind identifies which collection of the world document an entity came from.
type Kind string

const (
	KindLocation       Kind = "location"
	KindActor          Kind = "actor"
	KindItem           Kind = "item"
	KindLock           Kind = "lock"
	KindPart           Kind = "part"
	KindCommitment     Kind = "commitment"
	KindScheduledEvent Kind = "scheduled_event"
	KindGossip         Kind = "gossip"
	KindSpread         Kind = "spread"
)

// PlayerID is the reserved actor id for the player character.
const PlayerID = "player"

// Entity is the shape shared by every world object. Mechanic-specific state
// lives in Properties, namespaced by convention (e.g. a "conditions" sub-map).
// Fields not recognized by this schema version are preserved in Extra so that
// newer documents keep round-tripping through older engines.
type Entity struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Behaviors   []string       `json:"behaviors,omitempty"`

	Kind  Kind                       `json:"-"`
	Extra map[string]json.RawMessage `json:"-"`
}

// Prop returns a named property, or nil if unset.
func (e *Entity) Prop(key string) any {
	if e.Properties == nil {
		return nil
	}
	return e.Properties[key]
}

// SetProp sets a named property, allocating the bag on first use.
func (e *Entity) SetProp(key string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
}

// PropString returns a string property, or "" if unset or not a string.
func (e *Entity) PropString(key string) string {
	s, _ := e.Prop(key).(string)
	return s
}

// PropInt returns an integer property. JSON numbers decode as float64, so
// both forms are accepted.
func (e *Entity) PropInt(key string) (int, bool) {
	return asInt(e.Prop(key))
}

// PropBool returns a boolean property, or false if unset.
func (e *Entity) PropBool(key string) bool {
	b, _ := e.Prop(key).(bool)
	return b
}

// SubMap returns the named property sub-map, allocating and storing it if
// absent. Mechanics use this for their namespaced state.
func (e *Entity) SubMap(key string) map[string]any {
	if m, ok := e.Prop(key).(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	e.SetProp(key, m)
	return m
}

// HasBehavior reports whether the entity declares the named behavior module.
func (e *Entity) HasBehavior(name string) bool {
	for _, b := range e.Behaviors {
		if b == name {
			return true
		}
	}
	return false
}

// DisplayName returns the entity's name, falling back to its id.
func (e *Entity) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Exit connects a location to a destination. Door, if set, names the Lock
// guarding this exit.
type Exit struct {
	Direction   string `json:"direction"`
	Destination string `json:"destination"`
	Door        string `json:"door,omitempty"`
	Description string `json:"description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Location is a place in the world. Locations have no containing location
// of their own.
type Location struct {
	Entity
	Exits []Exit `json:"exits,omitempty"`
}

// ExitTo returns the exit in the given direction, or nil.
func (l *Location) ExitTo(direction string) *Exit {
	for i := range l.Exits {
		if l.Exits[i].Direction == direction {
			return &l.Exits[i]
		}
	}
	return nil
}

// Actor is a character. Health and body form are first-class because the
// turn pipeline's death check and the condition engine's immunity rules
// depend on them; everything else mechanics need goes in Properties.
type Actor struct {
	Entity
	Health     int      `json:"health,omitempty"`
	MaxHealth  int      `json:"max_health,omitempty"`
	BodyForm   string   `json:"body_form,omitempty"`
	Immunities []string `json:"immunities,omitempty"`
}

// IsDead reports whether the actor's health has reached zero.
func (a *Actor) IsDead() bool {
	return a.Health <= 0
}

// Item is a portable or fixed object. Its Location may be a location id, an
// actor id (inventory), another item id (container), or the "player"
// sentinel.
type Item struct {
	Entity
	Portable bool `json:"portable,omitempty"`
}

// Lock guards an exit. Key names the item that opens it.
type Lock struct {
	Entity
	Key    string `json:"key,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// Part is a named piece of another entity (a ship's wheel, a statue's arm).
type Part struct {
	Entity
	Of string `json:"of,omitempty"`
}
