// Package conditions binds the condition engine into the turn pipeline:
// it owns the condition_tick phase and the treat verb.
package conditions

import (
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/condition"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
)

// DefaultTreatAmount is how much severity one application of treatment
// removes when the command carries no explicit amount.
const DefaultTreatAmount = 10

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "conditions" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Verbs: []vocab.Verb{
			{Word: "treat", Synonyms: []string{"cure", "tend"}, RequiresObject: true},
		},
		Nouns: []string{"wound", "poison", "bleeding"},
		Hooks: map[string]string{
			turn.HookConditionTick: "conditions_advance",
		},
	}
}

func (m *Module) Handlers() map[string]turn.Handler {
	return map[string]turn.Handler{
		"handle_treat":          m.handleTreat,
		"on_conditions_advance": m.onConditionsAdvance,
	}
}

func (*Module) GateHandlers() map[string]turn.GateHandler { return nil }

// handleTreat reduces the named condition on the commanding actor. The
// optional "amount" field of the command overrides the default.
func (*Module) handleTreat(ctx *turn.Context) (turn.Outcome, error) {
	eng := condition.NewEngine(ctx.State, ctx.Logger)

	name := ctx.Command.Object
	if _, present, err := eng.Get(ctx.Command.ActorID, name); err != nil {
		return turn.Outcome{}, err
	} else if !present {
		return turn.Outcome{Message: fmt.Sprintf("You have no %s to treat.", name)}, nil
	}

	amount := DefaultTreatAmount
	if v, ok := ctx.Command.Extra["amount"]; ok {
		switch n := v.(type) {
		case int:
			amount = n
		case float64:
			amount = int(n)
		}
	}

	msg, err := eng.Treat(ctx.Command.ActorID, name, amount)
	if err != nil {
		return turn.Outcome{}, err
	}
	return turn.Outcome{Success: true, Message: msg}, nil
}

// onConditionsAdvance ticks every actor's conditions once, in sorted
// actor order so narration is deterministic.
func (*Module) onConditionsAdvance(ctx *turn.Context) (turn.Outcome, error) {
	eng := condition.NewEngine(ctx.State, ctx.Logger)

	var messages []string
	for _, actorID := range ctx.State.Graph().ActorIDs() {
		msgs, err := eng.Tick(actorID)
		if err != nil {
			return turn.Outcome{}, err
		}
		messages = append(messages, msgs...)
	}
	return turn.Outcome{Success: true, Message: strings.Join(messages, " ")}, nil
}
