package visibility

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/world"
)

func testContext(t *testing.T, cmd turn.Command, dark bool) *turn.Context {
	t.Helper()
	cellar := &world.Location{Entity: world.Entity{Name: "Cellar"}}
	if dark {
		cellar.SetProp("dark", true)
	}
	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Visibility Test", Start: "cellar"},
		Locations: map[string]*world.Location{
			"cellar": cellar,
		},
		Actors: map[string]*world.Actor{
			"player": {Entity: world.Entity{Location: "cellar"}, Health: 10, MaxHealth: 10},
		},
		Items: map[string]*world.Item{
			"candle": {Entity: world.Entity{Name: "Candle", Location: world.PlayerID}, Portable: true},
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

func TestVisibilityAllowsInLight(t *testing.T) {
	m := New()
	veto, err := m.GateHandlers()["on_visibility_check"](testContext(t, turn.Command{Verb: "look"}, false))
	require.NoError(t, err)
	assert.True(t, veto.Allow)
}

func TestVisibilityVetoesSightVerbsInDark(t *testing.T) {
	m := New()
	for _, verb := range []string{"look", "take", "drop", "treat"} {
		t.Run(verb, func(t *testing.T) {
			veto, err := m.GateHandlers()["on_visibility_check"](testContext(t, turn.Command{Verb: verb, Object: "candle"}, true))
			require.NoError(t, err)
			assert.False(t, veto.Allow)
			assert.Equal(t, "It is pitch dark. You can't see a thing.", veto.Message)
		})
	}
}

func TestVisibilityAllowsBlindVerbsInDark(t *testing.T) {
	m := New()
	for _, verb := range []string{"wait", "go", "inventory"} {
		t.Run(verb, func(t *testing.T) {
			veto, err := m.GateHandlers()["on_visibility_check"](testContext(t, turn.Command{Verb: verb}, true))
			require.NoError(t, err)
			assert.True(t, veto.Allow, "movement and waiting work by feel")
		})
	}
}

func TestVisibilityAllowsWithLitLightSource(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "look"}, true)
	ctx.State.Graph().Item("candle").SetProp("lit", true)

	veto, err := m.GateHandlers()["on_visibility_check"](ctx)
	require.NoError(t, err)
	assert.True(t, veto.Allow)
}

func TestVisibilityIgnoresDroppedLightSource(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "look"}, true)
	ctx.State.Graph().Item("candle").SetProp("lit", true)
	require.NoError(t, ctx.State.SetEntityWhere("candle", "cellar"))

	veto, err := m.GateHandlers()["on_visibility_check"](ctx)
	require.NoError(t, err)
	assert.False(t, veto.Allow, "only carried light counts")
}
