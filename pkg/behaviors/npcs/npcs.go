// Package npcs owns the npc_action phase: NPCs keep their commitments and
// pass along gossip before the environment gets its turn.
package npcs

import (
	"fmt"
	"strings"

	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

type Module struct{}

func New() *Module { return &Module{} }

func (*Module) Name() string { return "npcs" }

func (*Module) Vocabulary() vocab.Fragment {
	return vocab.Fragment{
		Hooks: map[string]string{
			turn.HookNPCAction: "npcs_act",
		},
	}
}

func (m *Module) Handlers() map[string]turn.Handler {
	return map[string]turn.Handler{
		"on_npcs_act": m.onNPCsAct,
	}
}

func (*Module) GateHandlers() map[string]turn.GateHandler { return nil }

// onNPCsAct walks commitments and gossip in sorted order. A commitment
// with properties {actor, location, turn} moves its actor on the first
// phase run at or past that turn (failed commands skip phases, so a due
// commitment may be kept a turn late rather than dropped); a gossip
// entry with {speaker, line} is spoken whenever the speaker shares the
// player's location and the entry is not yet spent.
func (m *Module) onNPCsAct(ctx *turn.Context) (turn.Outcome, error) {
	g := ctx.State.Graph()
	var messages []string

	for _, id := range g.VirtualIDs(world.KindCommitment) {
		c := g.Commitments[id]
		due, ok := c.PropInt("turn")
		if !ok || due > ctx.Turn || c.PropBool("kept") {
			continue
		}
		actorID := c.PropString("actor")
		dest := c.PropString("location")
		actor, err := ctx.State.Actor(actorID)
		if err != nil {
			return turn.Outcome{}, fmt.Errorf("commitment %q: %w", id, err)
		}
		if actor.Location != dest {
			if err := ctx.State.SetEntityWhere(actorID, dest); err != nil {
				return turn.Outcome{}, fmt.Errorf("commitment %q: %w", id, err)
			}
			loc, err := ctx.State.Location(dest)
			if err != nil {
				return turn.Outcome{}, fmt.Errorf("commitment %q: %w", id, err)
			}
			messages = append(messages, fmt.Sprintf("%s heads to %s.",
				actor.DisplayName(), loc.DisplayName()))
		}
		c.SetProp("kept", true)
	}

	player := ctx.State.Player()
	for _, id := range g.VirtualIDs(world.KindGossip) {
		entry := g.Gossip[id]
		if entry.PropBool("spoken") {
			continue
		}
		speaker, err := ctx.State.Actor(entry.PropString("speaker"))
		if err != nil || speaker.Location != player.Location {
			continue
		}
		line := entry.PropString("line")
		if line == "" {
			continue
		}
		messages = append(messages, fmt.Sprintf("%s says: %q", speaker.DisplayName(), line))
		entry.SetProp("spoken", true)
	}

	return turn.Outcome{Success: true, Message: strings.Join(messages, " ")}, nil
}
