package conditions

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbranagh/storyloom/pkg/condition"
	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/world"
)

func testContext(t *testing.T, cmd turn.Command) *turn.Context {
	t.Helper()
	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Conditions Test", Start: "sickbay"},
		Locations: map[string]*world.Location{
			"sickbay": {Entity: world.Entity{Name: "Sickbay"}},
		},
		Actors: map[string]*world.Actor{
			"player":  {Entity: world.Entity{Location: "sickbay"}, Health: 20, MaxHealth: 20},
			"patient": {Entity: world.Entity{Name: "Feverish Sailor", Location: "sickbay"}, Health: 12, MaxHealth: 12},
		},
	})
	require.NoError(t, err)
	if cmd.ActorID == "" {
		cmd.ActorID = "player"
	}
	return &turn.Context{
		State:   state.New(g),
		Command: cmd,
		Turn:    1,
		Logger:  slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func afflict(t *testing.T, ctx *turn.Context, actorID, name string, c condition.Condition) {
	t.Helper()
	eng := condition.NewEngine(ctx.State, ctx.Logger)
	_, err := eng.Apply(actorID, name, c)
	require.NoError(t, err)
}

func TestHandleTreat(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "treat", Object: "poison"})
	afflict(t, ctx, "player", "poison", condition.Condition{Severity: 25})

	out, err := m.Handlers()["handle_treat"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)

	eng := condition.NewEngine(ctx.State, ctx.Logger)
	c, present, err := eng.Get("player", "poison")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, 25-DefaultTreatAmount, c.Severity)
}

func TestHandleTreatExplicitAmount(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{
		Verb:   "treat",
		Object: "poison",
		Extra:  map[string]any{"amount": float64(25)}, // JSON numbers arrive as float64
	})
	afflict(t, ctx, "player", "poison", condition.Condition{Severity: 25})

	out, err := m.Handlers()["handle_treat"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)

	eng := condition.NewEngine(ctx.State, ctx.Logger)
	_, present, err := eng.Get("player", "poison")
	require.NoError(t, err)
	assert.False(t, present, "fully treated conditions are removed")
}

func TestHandleTreatNothingToTreat(t *testing.T) {
	m := New()
	out, err := m.Handlers()["handle_treat"](testContext(t, turn.Command{Verb: "treat", Object: "gout"}))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "You have no gout to treat.", out.Message)
}

func TestConditionsAdvanceTicksEveryActor(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "wait"})
	afflict(t, ctx, "player", "bleeding", condition.Condition{
		Severity: 10, DamagePerTurn: condition.Int(2),
	})
	afflict(t, ctx, "patient", "fever", condition.Condition{
		Severity: 10, DamagePerTurn: condition.Int(3),
	})

	out, err := m.Handlers()["on_conditions_advance"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)

	assert.Equal(t, 18, ctx.State.Player().Health)
	patient, _ := ctx.State.Actor("patient")
	assert.Equal(t, 9, patient.Health)
	assert.NotEmpty(t, out.Message)
}

func TestConditionsAdvanceQuietWhenHealthy(t *testing.T) {
	m := New()
	out, err := m.Handlers()["on_conditions_advance"](testContext(t, turn.Command{Verb: "wait"}))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.Message)
}
