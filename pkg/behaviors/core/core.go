// Package core contributes the baseline movement and object-handling
// verbs every world gets: wait, look, go, take, drop, inventory.
package core

import (
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "core" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Verbs: []vocab.Verb{
			{Word: "wait", Synonyms: []string{"rest", "z"}},
			{Word: "look", Synonyms: []string{"l", "examine", "x"}},
			{Word: "go", Synonyms: []string{"walk", "move", "head"}, RequiresObject: true},
			{Word: "take", Synonyms: []string{"get", "grab", "pick"}, RequiresObject: true},
			{Word: "drop", Synonyms: []string{"discard"}, RequiresObject: true},
			{Word: "inventory", Synonyms: []string{"i", "inv"}},
		},
		Nouns: []string{"door", "exit"},
	}
}

func (m *Module) Handlers() map[string]turn.Handler {
	return map[string]turn.Handler{
		"handle_wait":      m.handleWait,
		"handle_look":      m.handleLook,
		"handle_go":        m.handleGo,
		"handle_take":      m.handleTake,
		"handle_drop":      m.handleDrop,
		"handle_inventory": m.handleInventory,
	}
}

func (*Module) GateHandlers() map[string]turn.GateHandler { return nil }

// handleWait succeeds with no narration of its own; the turn phases that
// follow are the point of waiting.
func (*Module) handleWait(ctx *turn.Context) (turn.Outcome, error) {
	return turn.Outcome{Success: true}, nil
}

func (*Module) handleLook(ctx *turn.Context) (turn.Outcome, error) {
	actor, err := ctx.Actor()
	if err != nil {
		return turn.Outcome{}, err
	}

	if ctx.Command.Object != "" {
		target, err := ctx.State.Entity(ctx.Command.Object)
		if err != nil {
			return turn.Outcome{Message: "You see nothing like that here."}, nil
		}
		desc := target.Description
		if desc == "" {
			desc = fmt.Sprintf("There is nothing remarkable about %s.", target.DisplayName())
		}
		return turn.Outcome{Success: true, Message: desc}, nil
	}

	loc, err := ctx.State.Location(actor.Location)
	if err != nil {
		return turn.Outcome{}, err
	}

	var b strings.Builder
	b.WriteString(loc.DisplayName())
	if loc.Description != "" {
		b.WriteString("\n" + loc.Description)
	}
	for _, exit := range loc.Exits {
		b.WriteString(fmt.Sprintf("\nAn exit leads %s.", exit.Direction))
	}
	for _, item := range ctx.State.Graph().ItemsIn(loc.ID) {
		b.WriteString(fmt.Sprintf("\nYou see %s here.", item.DisplayName()))
	}
	for _, other := range ctx.State.Graph().ActorsAt(loc.ID) {
		if other.ID == actor.ID {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s is here.", other.DisplayName()))
	}
	return turn.Outcome{Success: true, Message: b.String()}, nil
}

func (*Module) handleGo(ctx *turn.Context) (turn.Outcome, error) {
	actor, err := ctx.Actor()
	if err != nil {
		return turn.Outcome{}, err
	}
	loc, err := ctx.State.Location(actor.Location)
	if err != nil {
		return turn.Outcome{}, err
	}

	exit := loc.ExitTo(ctx.Command.Object)
	if exit == nil {
		return turn.Outcome{Message: fmt.Sprintf("You can't go %s from here.", ctx.Command.Object)}, nil
	}
	if exit.Door != "" {
		lock := ctx.State.Graph().Lock(exit.Door)
		if lock != nil && lock.Locked {
			return turn.Outcome{Message: fmt.Sprintf("%s is locked.", lock.DisplayName())}, nil
		}
	}
	if err := ctx.State.SetEntityWhere(actor.ID, exit.Destination); err != nil {
		return turn.Outcome{}, err
	}

	dest, err := ctx.State.Location(exit.Destination)
	if err != nil {
		return turn.Outcome{}, err
	}
	return turn.Outcome{Success: true, Message: fmt.Sprintf("You head %s to %s.",
		exit.Direction, dest.DisplayName())}, nil
}

func (*Module) handleTake(ctx *turn.Context) (turn.Outcome, error) {
	actor, err := ctx.Actor()
	if err != nil {
		return turn.Outcome{}, err
	}
	item, err := ctx.State.Item(ctx.Command.Object)
	if err != nil {
		return turn.Outcome{Message: "You see nothing like that here."}, nil
	}
	if item.Location != actor.Location {
		return turn.Outcome{Message: fmt.Sprintf("%s isn't here.", item.DisplayName())}, nil
	}
	if !item.Portable {
		return turn.Outcome{Message: fmt.Sprintf("%s won't budge.", item.DisplayName())}, nil
	}
	if err := ctx.State.SetEntityWhere(item.ID, actor.ID); err != nil {
		return turn.Outcome{}, err
	}
	return turn.Outcome{Success: true, Message: fmt.Sprintf("You take %s.", item.DisplayName())}, nil
}

func (*Module) handleDrop(ctx *turn.Context) (turn.Outcome, error) {
	actor, err := ctx.Actor()
	if err != nil {
		return turn.Outcome{}, err
	}
	item, err := ctx.State.Item(ctx.Command.Object)
	if err != nil || !heldBy(item, actor) {
		return turn.Outcome{Message: "You aren't carrying that."}, nil
	}
	if err := ctx.State.SetEntityWhere(item.ID, actor.Location); err != nil {
		return turn.Outcome{}, err
	}
	return turn.Outcome{Success: true, Message: fmt.Sprintf("You drop %s.", item.DisplayName())}, nil
}

func (*Module) handleInventory(ctx *turn.Context) (turn.Outcome, error) {
	actor, err := ctx.Actor()
	if err != nil {
		return turn.Outcome{}, err
	}
	held := ctx.State.Graph().ItemsIn(actor.ID)
	if len(held) == 0 {
		return turn.Outcome{Success: true, Message: "You are carrying nothing."}, nil
	}
	names := make([]string, len(held))
	for i, item := range held {
		names[i] = item.DisplayName()
	}
	return turn.Outcome{Success: true, Message: "You are carrying: " + strings.Join(names, ", ") + "."}, nil
}

// heldBy covers both the actor's own id and the "player" sentinel.
func heldBy(item *world.Item, actor *world.Actor) bool {
	if item == nil {
		return false
	}
	return item.Location == actor.ID || (actor.ID == world.PlayerID && item.Location == world.PlayerID)
}
