// Package sheet holds d20-backed character sheets for player characters.
// The world document carries only what validation needs (health, body
// form); the sheet adds the stat block and seeds the player entity when a
// session starts.
package sheet

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/tbranagh/storyloom/pkg/world"
)

// Stats is the six-score ability block.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats to the map form d20.Actor expects.
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// Sheet is the serializable character sheet.
type Sheet struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Class       string         `json:"class,omitempty"`
	Level       int            `json:"level,omitempty"`
	Description string         `json:"description,omitempty"`
	Stats       Stats          `json:"stats,omitempty"`
	HP          int            `json:"hp,omitempty"`
	MaxHP       int            `json:"max_hp,omitempty"`
	AC          int            `json:"ac,omitempty"`
	Attributes  map[string]int `json:"attributes,omitempty"` // skills, proficiencies
}

// BuildActor constructs the runtime d20 actor from the sheet.
func (s *Sheet) BuildActor() (*d20.Actor, error) {
	allAttrs := s.Stats.ToAttributes()
	maps.Copy(allAttrs, s.Attributes)

	actor, err := d20.NewActor(s.ID).
		WithHP(s.MaxHP).
		WithAC(s.AC).
		WithAttributes(allAttrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	if s.HP != s.MaxHP && s.HP > 0 {
		if err := actor.SetHP(s.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// Seed copies the sheet's vitals and stat block onto a world actor at
// session start. Stats land in the actor's property bag under "stats" so
// mechanics can read them without knowing about sheets.
func (s *Sheet) Seed(actor *world.Actor) error {
	a, err := s.BuildActor()
	if err != nil {
		return err
	}
	actor.Health = a.HP()
	actor.MaxHealth = a.MaxHP()
	if s.Name != "" {
		actor.Name = s.Name
	}
	statProps := make(map[string]any, 6)
	for k, v := range s.Stats.ToAttributes() {
		statProps[k] = v
	}
	actor.SetProp("stats", statProps)
	if s.AC > 0 {
		actor.SetProp("ac", a.AC())
	}
	return nil
}

// Load reads a sheet from a JSON file. The filename (without extension)
// overrides any id in the JSON, matching how worlds key their actors.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet file: %w", err)
	}
	var s Sheet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sheet: %w", err)
	}
	s.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	return &s, nil
}
