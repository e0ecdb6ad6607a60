// Package death owns the death_check phase, always the last to run so it
// sees every wound the earlier phases dealt this turn.
package death

import (
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "death" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Hooks: map[string]string{
			turn.HookDeathCheck: "death_resolves",
		},
	}
}

func (m *Module) Handlers() map[string]turn.Handler {
	return map[string]turn.Handler{
		"on_death_resolves": m.onDeathResolves,
	}
}

func (*Module) GateHandlers() map[string]turn.GateHandler { return nil }

// onDeathResolves marks actors whose health reached zero this turn. The
// "dead" property is the marker other mechanics check; the entity stays
// in the graph so its body can still be interacted with.
func (*Module) onDeathResolves(ctx *turn.Context) (turn.Outcome, error) {
	g := ctx.State.Graph()
	var messages []string

	for _, id := range g.ActorIDs() {
		actor := g.Actors[id]
		if !actor.IsDead() || actor.PropBool("dead") {
			continue
		}
		actor.SetProp("dead", true)
		if id == world.PlayerID {
			messages = append(messages, "You have died.")
		} else {
			messages = append(messages, fmt.Sprintf("%s has died.", actor.DisplayName()))
		}
	}

	return turn.Outcome{Success: true, Message: strings.Join(messages, " ")}, nil
}
