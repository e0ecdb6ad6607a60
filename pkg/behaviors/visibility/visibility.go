// Package visibility contributes the gating check that vetoes
// sight-dependent commands in dark locations.
package visibility

import (
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
)

// sightVerbs are the commands that need light. Movement and waiting work
// by feel.
var sightVerbs = map[string]bool{
	"look":  true,
	"take":  true,
	"drop":  true,
	"treat": true,
}

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "visibility" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Gates: []string{"visibility_check"},
	}
}

func (*Module) Handlers() map[string]turn.Handler { return nil }

func (m *Module) GateHandlers() map[string]turn.GateHandler {
	return map[string]turn.GateHandler{
		"on_visibility_check": m.onVisibilityCheck,
	}
}

// onVisibilityCheck vetoes sight verbs when the acting actor stands in a
// dark location with no lit light source in hand.
func (*Module) onVisibilityCheck(ctx *turn.Context) (turn.Veto, error) {
	if !sightVerbs[ctx.Command.Verb] {
		return turn.Veto{Allow: true}, nil
	}

	actor, err := ctx.Actor()
	if err != nil {
		return turn.Veto{}, err
	}
	loc, err := ctx.State.Location(actor.Location)
	if err != nil {
		return turn.Veto{}, err
	}
	if !loc.PropBool("dark") {
		return turn.Veto{Allow: true}, nil
	}

	for _, item := range ctx.State.Graph().ItemsIn(actor.ID) {
		if item.PropBool("lit") {
			return turn.Veto{Allow: true}, nil
		}
	}

	return turn.Veto{Message: "It is pitch dark. You can't see a thing."}, nil
}
