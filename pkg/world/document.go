package world

import (
	"encoding/json"
	"fmt"
)

// Metadata describes a world document as a whole.
type Metadata struct {
	Title         string `json:"title"`
	Start         string `json:"start"`
	SchemaVersion string `json:"schema_version,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Document is the declarative world data format. Collections are keyed by
// entity id. Unknown top-level keys are preserved in Extra rather than
// rejected, so documents written for a newer schema still load.
type Document struct {
	Metadata        Metadata             `json:"metadata"`
	Locations       map[string]*Location `json:"locations,omitempty"`
	Items           map[string]*Item     `json:"items,omitempty"`
	Actors          map[string]*Actor    `json:"actors,omitempty"`
	Locks           map[string]*Lock     `json:"locks,omitempty"`
	Parts           map[string]*Part     `json:"parts,omitempty"`
	Commitments     map[string]*Entity   `json:"commitments,omitempty"`
	ScheduledEvents map[string]*Entity   `json:"scheduled_events,omitempty"`
	Gossip          map[string]*Entity   `json:"gossip,omitempty"`
	Spreads         map[string]*Entity   `json:"spreads,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ParseDocument decodes a world document from JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse world document: %w", err)
	}
	return &doc, nil
}

// splitExtra returns any keys of the JSON object not in the known list,
// preserved verbatim. Returns nil when nothing is left over.
func splitExtra(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalParts flattens one or more structs into a single JSON object and
// re-attaches preserved extra keys. Schema fields win over extras on collision.
func marshalParts(extra map[string]json.RawMessage, parts ...any) ([]byte, error) {
	out := make(map[string]json.RawMessage)
	for _, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		for k, v := range m {
			out[k] = v
		}
	}
	for k, v := range extra {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

var entityKeys = []string{"id", "name", "description", "location", "properties", "behaviors"}

func (e *Entity) UnmarshalJSON(data []byte) error {
	type alias Entity
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, entityKeys...)
	if err != nil {
		return err
	}
	*e = Entity(a)
	e.Extra = extra
	return nil
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	type alias Entity
	return marshalParts(e.Extra, alias(*e))
}

// dropExtra removes type-specific keys already decoded into struct fields
// from the inherited extra bag.
func (e *Entity) dropExtra(keys ...string) {
	for _, k := range keys {
		delete(e.Extra, k)
	}
	if len(e.Extra) == 0 {
		e.Extra = nil
	}
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if err := l.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Exits []Exit `json:"exits"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Exits = aux.Exits
	l.dropExtra("exits")
	return nil
}

func (l *Location) MarshalJSON() ([]byte, error) {
	type alias Entity
	aux := struct {
		Exits []Exit `json:"exits,omitempty"`
	}{l.Exits}
	return marshalParts(l.Extra, alias(l.Entity), aux)
}

func (a *Actor) UnmarshalJSON(data []byte) error {
	if err := a.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Health     int      `json:"health"`
		MaxHealth  int      `json:"max_health"`
		BodyForm   string   `json:"body_form"`
		Immunities []string `json:"immunities"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Health = aux.Health
	a.MaxHealth = aux.MaxHealth
	a.BodyForm = aux.BodyForm
	a.Immunities = aux.Immunities
	a.dropExtra("health", "max_health", "body_form", "immunities")
	return nil
}

func (a *Actor) MarshalJSON() ([]byte, error) {
	type alias Entity
	aux := struct {
		Health     int      `json:"health,omitempty"`
		MaxHealth  int      `json:"max_health,omitempty"`
		BodyForm   string   `json:"body_form,omitempty"`
		Immunities []string `json:"immunities,omitempty"`
	}{a.Health, a.MaxHealth, a.BodyForm, a.Immunities}
	return marshalParts(a.Extra, alias(a.Entity), aux)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	if err := i.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Portable bool `json:"portable"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.Portable = aux.Portable
	i.dropExtra("portable")
	return nil
}

func (i *Item) MarshalJSON() ([]byte, error) {
	type alias Entity
	aux := struct {
		Portable bool `json:"portable,omitempty"`
	}{i.Portable}
	return marshalParts(i.Extra, alias(i.Entity), aux)
}

func (lk *Lock) UnmarshalJSON(data []byte) error {
	if err := lk.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Key    string `json:"key"`
		Locked bool   `json:"locked"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	lk.Key = aux.Key
	lk.Locked = aux.Locked
	lk.dropExtra("key", "locked")
	return nil
}

func (lk *Lock) MarshalJSON() ([]byte, error) {
	type alias Entity
	aux := struct {
		Key    string `json:"key,omitempty"`
		Locked bool   `json:"locked,omitempty"`
	}{lk.Key, lk.Locked}
	return marshalParts(lk.Extra, alias(lk.Entity), aux)
}

func (p *Part) UnmarshalJSON(data []byte) error {
	if err := p.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var aux struct {
		Of string `json:"of"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Of = aux.Of
	p.dropExtra("of")
	return nil
}

func (p *Part) MarshalJSON() ([]byte, error) {
	type alias Entity
	aux := struct {
		Of string `json:"of,omitempty"`
	}{p.Of}
	return marshalParts(p.Extra, alias(p.Entity), aux)
}

func (x *Exit) UnmarshalJSON(data []byte) error {
	type alias Exit
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, "direction", "destination", "door", "description")
	if err != nil {
		return err
	}
	*x = Exit(a)
	x.Extra = extra
	return nil
}

func (x Exit) MarshalJSON() ([]byte, error) {
	type alias Exit
	return marshalParts(x.Extra, alias(x))
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	type alias Metadata
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, "title", "start", "schema_version")
	if err != nil {
		return err
	}
	*m = Metadata(a)
	m.Extra = extra
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	type alias Metadata
	return marshalParts(m.Extra, alias(m))
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, "metadata", "locations", "items", "actors",
		"locks", "parts", "commitments", "scheduled_events", "gossip", "spreads")
	if err != nil {
		return err
	}
	*d = Document(a)
	d.Extra = extra
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return marshalParts(d.Extra, alias(*d))
}
