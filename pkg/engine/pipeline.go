// Package engine orchestrates a single command from resolution through the
// ordered turn-phase hook sequence. Execution is strictly one command at a
// time: a turn runs to completion (or fatal handler error) before the next
// command is accepted, which is what lets the rest of the core stay free
// of locking.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
)

// Phase of the pipeline state machine. Exposed for logging and tests;
// outside of Execute the pipeline is always Idle.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseResolving       Phase = "resolving"
	PhasePrimaryExecuted Phase = "primary_executed"
	PhaseTurnPhases      Phase = "turn_phases"
)

// HandlerFault is an unexpected error raised by an authored behavior
// during gating or the primary action. It is never swallowed: a
// misbehaving mechanic must not silently corrupt the graph. The detail is
// for the author, not the player.
type HandlerFault struct {
	Verb string
	Err  error
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("handler for verb %q failed: %v", f.Verb, f.Err)
}

func (f *HandlerFault) Unwrap() error { return f.Err }

// PhaseFault is an error raised by a turn-phase hook after the primary
// action already succeeded. Phases before the faulting one keep their
// effects and messages; phases after it are skipped.
type PhaseFault struct {
	Hook  string
	Event string
	Err   error
}

func (f *PhaseFault) Error() string {
	return fmt.Sprintf("turn phase %q (event %q) failed: %v", f.Hook, f.Event, f.Err)
}

func (f *PhaseFault) Unwrap() error { return f.Err }

// Pipeline resolves commands against the vocabulary registry and drives
// the turn-phase sequence over a validated world.
type Pipeline struct {
	registry *vocab.Registry
	state    *state.Accessor
	logger   *slog.Logger
	phase    Phase
	turns    int
}

// New creates a pipeline. The registry must already be fully populated;
// modules are not registered mid-session.
func New(registry *vocab.Registry, st *state.Accessor, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		state:    st,
		logger:   logger,
		phase:    PhaseIdle,
	}
}

// Phase returns the pipeline's current state-machine phase.
func (p *Pipeline) Phase() Phase { return p.phase }

// Turns returns the number of commands executed so far this session.
func (p *Pipeline) Turns() int { return p.turns }

// SetTurns restores the turn counter when resuming a persisted session.
func (p *Pipeline) SetTurns(n int) { p.turns = n }

// Execute resolves one command end to end.
//
// An unknown verb or missing object is an ordinary failed command: no
// state is mutated, no phases run, and the error return is nil. Gating
// hooks may veto with the same semantics. Handler errors during the
// primary action propagate as *HandlerFault; errors during a turn phase
// propagate as *PhaseFault with the partial result intact.
//
// Turn phases fire only when the primary action genuinely succeeded, in
// fixed order: npc_action, environmental_effect, condition_tick,
// death_check. An unbound hook is a no-op phase.
func (p *Pipeline) Execute(cmd turn.Command) (turn.Result, error) {
	p.phase = PhaseResolving
	defer func() { p.phase = PhaseIdle }()

	handler, verb, err := p.registry.VerbHandler(cmd.Verb)
	if err != nil {
		if errors.Is(err, vocab.ErrUnknownVerb) {
			return turn.Result{
				PrimaryMessage: fmt.Sprintf("You don't know how to %q.", cmd.Verb),
			}, nil
		}
		return turn.Result{}, err
	}
	if verb.RequiresObject && cmd.Object == "" {
		return turn.Result{
			PrimaryMessage: fmt.Sprintf("What do you want to %s?", verb.Word),
		}, nil
	}

	// Normalize synonyms so handlers only ever see the canonical word.
	cmd.Verb = verb.Word
	if cmd.ActorID == "" {
		cmd.ActorID = "player"
	}

	p.turns++
	ctx := &turn.Context{
		State:   p.state,
		Command: cmd,
		Turn:    p.turns,
		Logger:  p.logger,
	}

	for _, gateCheck := range p.registry.Gates() {
		veto, err := gateCheck(ctx)
		if err != nil {
			return turn.Result{}, &HandlerFault{Verb: cmd.Verb, Err: err}
		}
		if !veto.Allow {
			p.logger.Debug("command vetoed by gate",
				"verb", cmd.Verb, "actor", cmd.ActorID, "turn", p.turns)
			return turn.Result{PrimaryMessage: veto.Message}, nil
		}
	}

	outcome, err := handler(ctx)
	if err != nil {
		return turn.Result{}, &HandlerFault{Verb: cmd.Verb, Err: err}
	}
	p.phase = PhasePrimaryExecuted

	result := turn.Result{
		Success:        outcome.Success,
		PrimaryMessage: outcome.Message,
	}
	if !outcome.Success {
		return result, nil
	}

	p.phase = PhaseTurnPhases
	for _, hook := range turn.Phases {
		event, bound := p.registry.EventForHook(hook)
		if !bound {
			continue
		}
		eventHandler, ok := p.registry.HandlerForEvent(event)
		if !ok {
			// Registration validates event handlers up front, so this is
			// unreachable on a registry built through Register.
			continue
		}
		phaseOutcome, err := eventHandler(ctx)
		if err != nil {
			p.logger.Error("turn phase failed",
				"hook", hook, "event", event, "turn", p.turns, "error", err)
			return result, &PhaseFault{Hook: hook, Event: event, Err: err}
		}
		if phaseOutcome.Message != "" {
			result.TurnPhaseMessages = append(result.TurnPhaseMessages, phaseOutcome.Message)
		}
		p.logger.Debug("turn phase complete", "hook", hook, "event", event, "turn", p.turns)
	}

	return result, nil
}
