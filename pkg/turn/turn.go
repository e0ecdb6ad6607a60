// Package turn defines the types that flow through a single game turn:
// the pre-parsed command, the handler contract behaviors implement, and
// the aggregated result handed to the narrator.
package turn

import (
	"log/slog"

	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/world"
)

// Hook names fired by the pipeline, in their contractual order. NPCs act
// before the environment reacts, the environment resolves before
// conditions tick, and conditions resolve before death is evaluated,
// because each phase may depend on state mutated by the one before it.
const (
	HookNPCAction           = "npc_action"
	HookEnvironmentalEffect = "environmental_effect"
	HookConditionTick       = "condition_tick"
	HookDeathCheck          = "death_check"
)

// Phases is the fixed turn-phase sequence. Only fired after the primary
// command succeeds.
var Phases = []string{
	HookNPCAction,
	HookEnvironmentalEffect,
	HookConditionTick,
	HookDeathCheck,
}

// Command is one pre-parsed player or NPC action. Extra carries any
// parser fields this core does not interpret.
type Command struct {
	Verb    string         `json:"verb"`
	Object  string         `json:"object,omitempty"`
	ActorID string         `json:"actor_id"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Result is the aggregated output of one turn, the shape consumed by an
// external narrator.
type Result struct {
	Success           bool     `json:"success"`
	PrimaryMessage    string   `json:"primary_message"`
	TurnPhaseMessages []string `json:"turn_phase_messages,omitempty"`
}

// Outcome is what a primary or phase handler returns.
type Outcome struct {
	Success bool
	Message string
}

// Veto is what a gating handler returns. Allow=false short-circuits the
// turn before the primary handler runs.
type Veto struct {
	Allow   bool
	Message string
}

// Context carries everything a handler may touch during one invocation.
// Handlers must re-fetch entities through State each call; holding entity
// pointers across turns is how stale-reference bugs happen.
type Context struct {
	State   *state.Accessor
	Command Command
	Turn    int
	Logger  *slog.Logger
}

// Actor is a shorthand for looking up the commanding actor.
func (c *Context) Actor() (*world.Actor, error) {
	return c.State.Actor(c.Command.ActorID)
}

// Handler executes a verb or a hook event against the current turn.
type Handler func(*Context) (Outcome, error)

// GateHandler runs before the primary handler and may veto the command.
type GateHandler func(*Context) (Veto, error)
