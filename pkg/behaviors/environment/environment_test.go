package environment

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

func testContext(t *testing.T, turnNumber int) *turn.Context {
	t.Helper()
	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Environment Test", Start: "bilge"},
		Locations: map[string]*world.Location{
			"bilge": {Entity: world.Entity{Name: "Bilge"}},
			"deck":  {Entity: world.Entity{Name: "Deck"}},
		},
		Actors: map[string]*world.Actor{
			"player": {Entity: world.Entity{Location: "bilge"}, Health: 20, MaxHealth: 20},
			"golem": {
				Entity:   world.Entity{Name: "Brass Golem", Location: "bilge"},
				Health:   30, MaxHealth: 30,
				BodyForm: "construct",
			},
			"mate": {Entity: world.Entity{Name: "First Mate", Location: "deck"}, Health: 15, MaxHealth: 15},
		},
		Spreads: map[string]*world.Entity{
			"bilge_rot": {
				Location: "bilge",
				Properties: map[string]any{
					"condition":       "disease",
					"severity":        5,
					"damage_per_turn": 2,
				},
			},
		},
		ScheduledEvents: map[string]*world.Entity{
			"bell": {
				Properties: map[string]any{
					"turn":    2,
					"message": "A bell tolls somewhere above.",
				},
			},
		},
	})
	require.NoError(t, err)
	return &turn.Context{
		State:   state.New(g),
		Command: turn.Command{Verb: "wait", ActorID: "player"},
		Turn:    turnNumber,
		Logger:  slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func TestSpreadAfflictsActorsAtLocation(t *testing.T) {
	m := New()
	ctx := testContext(t, 1)

	out, err := m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)

	eng := condition.NewEngine(ctx.State, ctx.Logger)
	c, present, err := eng.Get("player", "disease")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, 5, c.Severity)
	require.NotNil(t, c.DamagePerTurn)
	assert.Equal(t, 2, *c.DamagePerTurn)

	// The mate is on deck, out of the spread's reach.
	_, present, err = eng.Get("mate", "disease")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSpreadRespectsImmunity(t *testing.T) {
	m := New()
	ctx := testContext(t, 1)

	_, err := m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)

	// Constructs don't catch disease.
	eng := condition.NewEngine(ctx.State, ctx.Logger)
	_, present, err := eng.Get("golem", "disease")
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSpreadStacksTurnOverTurn(t *testing.T) {
	m := New()
	ctx := testContext(t, 1)

	_, err := m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	_, err = m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)

	eng := condition.NewEngine(ctx.State, ctx.Logger)
	c, present, err := eng.Get("player", "disease")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, 10, c.Severity, "repeated exposure stacks severity")
}

func TestScheduledEventFiresOnceWhenDue(t *testing.T) {
	m := New()

	ctx := testContext(t, 1)
	out, err := m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.NotContains(t, out.Message, "bell tolls")

	ctx = testContext(t, 2)
	out, err = m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.Contains(t, out.Message, "A bell tolls somewhere above.")
	assert.True(t, ctx.State.Graph().ScheduledEvents["bell"].PropBool("fired"))

	// Already fired: silent even if the turn number matched again.
	out, err = m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.NotContains(t, out.Message, "bell tolls")
}

func TestScheduledEventFiresLateWhenDueTurnWasSkipped(t *testing.T) {
	m := New()

	// Failed commands consume a turn number without running phases, so
	// the phase may first see the session already past the due turn.
	// The event must still fire, once.
	ctx := testContext(t, 4)
	out, err := m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.Contains(t, out.Message, "A bell tolls somewhere above.")
	assert.True(t, ctx.State.Graph().ScheduledEvents["bell"].PropBool("fired"))

	ctx.Turn = 5
	out, err = m.Handlers()["on_environment_resolves"](ctx)
	require.NoError(t, err)
	assert.NotContains(t, out.Message, "bell tolls")
}
