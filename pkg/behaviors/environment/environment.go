// Package environment owns the environmental_effect phase: spreads creep
// through their locations afflicting whoever stands in them, and
// scheduled events fire when their turn comes.
package environment

import (
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/condition"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "environment" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Hooks: map[string]string{
			turn.HookEnvironmentalEffect: "environment_resolves",
		},
	}
}

func (m *Module) Handlers() map[string]turn.Handler {
	return map[string]turn.Handler{
		"on_environment_resolves": m.onEnvironmentResolves,
	}
}

func (*Module) GateHandlers() map[string]turn.GateHandler { return nil }

// onEnvironmentResolves runs spreads, then scheduled events, each in
// sorted id order.
//
// A spread has a location plus properties {condition, severity,
// damage_per_turn?}: every actor standing at its location contracts the
// condition each turn (immunity applies through the condition engine).
// A scheduled event has properties {turn, message} and fires exactly
// once, on the first phase run at or past its due turn. Phases do not
// run on failed commands, so a due event may fire a turn or two late;
// it is never dropped.
func (m *Module) onEnvironmentResolves(ctx *turn.Context) (turn.Outcome, error) {
	g := ctx.State.Graph()
	eng := condition.NewEngine(ctx.State, ctx.Logger)
	var messages []string

	for _, id := range g.VirtualIDs(world.KindSpread) {
		spread := g.Spreads[id]
		condName := spread.PropString("condition")
		if condName == "" || spread.Location == "" {
			continue
		}
		severity, _ := spread.PropInt("severity")
		cond := condition.Condition{Severity: severity}
		if dmg, ok := spread.PropInt("damage_per_turn"); ok {
			cond.DamagePerTurn = condition.Int(dmg)
		}
		for _, actor := range g.ActorsAt(spread.Location) {
			msg, err := eng.Apply(actor.ID, condName, cond)
			if err != nil {
				return turn.Outcome{}, fmt.Errorf("spread %q: %w", id, err)
			}
			if msg != "" {
				messages = append(messages, msg)
			}
		}
	}

	for _, id := range g.VirtualIDs(world.KindScheduledEvent) {
		event := g.ScheduledEvents[id]
		due, ok := event.PropInt("turn")
		if !ok || due > ctx.Turn || event.PropBool("fired") {
			continue
		}
		if msg := event.PropString("message"); msg != "" {
			messages = append(messages, msg)
		}
		event.SetProp("fired", true)
	}

	return turn.Outcome{Success: true, Message: strings.Join(messages, " ")}, nil
}
