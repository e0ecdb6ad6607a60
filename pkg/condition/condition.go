// Package condition maintains per-actor timed effects: stacking severity,
// duration decay, and periodic damage, driven once per turn by the
// pipeline's condition_tick phase.
package condition

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/world"
)

// conditionsProp is the namespaced sub-map on an actor's property bag
// where this engine keeps its state.
const conditionsProp = "conditions"

// Condition is one timed effect on an actor. Pointer fields distinguish
// "absent" from zero: a condition with no duration never expires, and a
// condition with no damage deals none.
type Condition struct {
	Severity        int    `json:"severity"`
	DamagePerTurn   *int   `json:"damage_per_turn,omitempty"`
	Duration        *int   `json:"duration,omitempty"`
	ProgressionRate *int   `json:"progression_rate,omitempty"`
	Effect          string `json:"effect,omitempty"`
}

// bodyFormImmunities is the blanket immunity rule: biological afflictions
// do not take hold on non-biological bodies. Mechanical effects such as
// bleeding from a severed cable are deliberately not listed.
var bodyFormImmunities = map[string][]string{
	"construct": {"poison", "disease", "nausea", "intoxication"},
	"spectral":  {"poison", "disease", "bleeding"},
}

// Engine applies and advances conditions through the state accessor. No
// clamping is applied to severity or duration; bounds are the condition
// author's responsibility.
type Engine struct {
	state  *state.Accessor
	logger *slog.Logger
}

// NewEngine creates a condition engine over the given accessor.
func NewEngine(st *state.Accessor, logger *slog.Logger) *Engine {
	return &Engine{state: st, logger: logger}
}

// Immune reports whether the actor cannot contract the named condition,
// either from its explicit immunity list or from a body-form blanket rule.
func Immune(actor *world.Actor, name string) bool {
	for _, im := range actor.Immunities {
		if im == name {
			return true
		}
	}
	for _, im := range bodyFormImmunities[actor.BodyForm] {
		if im == name {
			return true
		}
	}
	return false
}

// Apply adds a condition to an actor. Immune actors reject it with a
// message and no mutation. If the condition already exists, severities
// stack additively and every other field of the existing entry is kept.
func (e *Engine) Apply(actorID, name string, cond Condition) (string, error) {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return "", err
	}
	if Immune(actor, name) {
		return fmt.Sprintf("%s is unaffected by %s.", actor.DisplayName(), name), nil
	}

	conds := actor.SubMap(conditionsProp)
	if raw, ok := conds[name]; ok {
		existing := decode(raw)
		existing.Severity += cond.Severity
		conds[name] = encode(existing)
		if e.logger != nil {
			e.logger.Debug("condition stacked",
				"actor", actorID, "condition", name, "severity", existing.Severity)
		}
		return fmt.Sprintf("%s's %s worsens.", actor.DisplayName(), name), nil
	}

	conds[name] = encode(cond)
	if e.logger != nil {
		e.logger.Debug("condition applied",
			"actor", actorID, "condition", name, "severity", cond.Severity)
	}
	return fmt.Sprintf("%s is afflicted with %s.", actor.DisplayName(), name), nil
}

// Tick advances every condition on an actor by one turn. For each
// condition, damage_per_turn is applied to health, duration counts down
// (removing the condition at zero or below), and progression_rate is
// added to severity. All three apply independently within the same tick.
func (e *Engine) Tick(actorID string) ([]string, error) {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return nil, err
	}
	raw, ok := actor.Prop(conditionsProp).(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var messages []string
	for _, name := range names {
		cond := decode(raw[name])

		if cond.DamagePerTurn != nil {
			if err := e.state.Damage(actorID, *cond.DamagePerTurn); err != nil {
				return messages, err
			}
			messages = append(messages, fmt.Sprintf("%s takes %d damage from %s.",
				actor.DisplayName(), *cond.DamagePerTurn, name))
		}

		if cond.ProgressionRate != nil {
			cond.Severity += *cond.ProgressionRate
		}

		if cond.Duration != nil {
			d := *cond.Duration - 1
			cond.Duration = &d
			if d <= 0 {
				delete(raw, name)
				messages = append(messages, fmt.Sprintf("%s's %s has run its course.",
					actor.DisplayName(), name))
				continue
			}
		}

		raw[name] = encode(cond)
	}
	return messages, nil
}

// Treat reduces a condition's severity by amount. At zero or below the
// condition is cured and removed.
func (e *Engine) Treat(actorID, name string, amount int) (string, error) {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return "", err
	}
	raw, ok := actor.Prop(conditionsProp).(map[string]any)
	if !ok {
		return fmt.Sprintf("%s has no %s to treat.", actor.DisplayName(), name), nil
	}
	entry, ok := raw[name]
	if !ok {
		return fmt.Sprintf("%s has no %s to treat.", actor.DisplayName(), name), nil
	}

	cond := decode(entry)
	cond.Severity -= amount
	if cond.Severity <= 0 {
		delete(raw, name)
		return fmt.Sprintf("%s's %s is cured.", actor.DisplayName(), name), nil
	}
	raw[name] = encode(cond)
	return fmt.Sprintf("%s's %s eases.", actor.DisplayName(), name), nil
}

// Remove deletes a condition unconditionally, regardless of severity.
func (e *Engine) Remove(actorID, name string) error {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return err
	}
	if raw, ok := actor.Prop(conditionsProp).(map[string]any); ok {
		delete(raw, name)
	}
	return nil
}

// Get returns the decoded condition and whether it is present.
func (e *Engine) Get(actorID, name string) (Condition, bool, error) {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return Condition{}, false, err
	}
	raw, ok := actor.Prop(conditionsProp).(map[string]any)
	if !ok {
		return Condition{}, false, nil
	}
	entry, ok := raw[name]
	if !ok {
		return Condition{}, false, nil
	}
	return decode(entry), true, nil
}

// Names returns the sorted condition names active on an actor.
func (e *Engine) Names(actorID string) ([]string, error) {
	actor, err := e.state.Actor(actorID)
	if err != nil {
		return nil, err
	}
	raw, ok := actor.Prop(conditionsProp).(map[string]any)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// encode writes a condition into the plain-map form stored in the actor's
// property bag, so session snapshots round-trip through JSON.
func encode(c Condition) map[string]any {
	m := map[string]any{"severity": c.Severity}
	if c.DamagePerTurn != nil {
		m["damage_per_turn"] = *c.DamagePerTurn
	}
	if c.Duration != nil {
		m["duration"] = *c.Duration
	}
	if c.ProgressionRate != nil {
		m["progression_rate"] = *c.ProgressionRate
	}
	if c.Effect != "" {
		m["effect"] = c.Effect
	}
	return m
}

// decode reads the stored form back. JSON numbers arrive as float64 after
// a snapshot reload, so both int and float64 are accepted.
func decode(v any) Condition {
	m, ok := v.(map[string]any)
	if !ok {
		return Condition{}
	}
	var c Condition
	if n, ok := asInt(m["severity"]); ok {
		c.Severity = n
	}
	if n, ok := asInt(m["damage_per_turn"]); ok {
		c.DamagePerTurn = &n
	}
	if n, ok := asInt(m["duration"]); ok {
		c.Duration = &n
	}
	if n, ok := asInt(m["progression_rate"]); ok {
		c.ProgressionRate = &n
	}
	if s, ok := m["effect"].(string); ok {
		c.Effect = s
	}
	return c
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

// Int is a convenience for building conditions with optional fields.
func Int(n int) *int { return &n }
