package core

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

func testContext(t *testing.T, cmd turn.Command) *turn.Context {
	t.Helper()
	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Core Test", Start: "galley"},
		Locations: map[string]*world.Location{
			"galley": {
				Entity: world.Entity{Name: "Galley", Description: "Pots sway overhead."},
				Exits: []world.Exit{
					{Direction: "aft", Destination: "mess"},
					{Direction: "up", Destination: "deck", Door: "hatch"},
				},
			},
			"mess": {Entity: world.Entity{Name: "Mess Hall"}},
			"deck": {Entity: world.Entity{Name: "Deck"}},
		},
		Actors: map[string]*world.Actor{
			"player": {Entity: world.Entity{Location: "galley"}, Health: 10, MaxHealth: 10},
			"cook":   {Entity: world.Entity{Name: "The Cook", Location: "galley"}, Health: 5, MaxHealth: 5},
		},
		Items: map[string]*world.Item{
			"ladle": {Entity: world.Entity{Name: "Ladle", Location: "galley"}, Portable: true},
			"stove": {Entity: world.Entity{Name: "Iron Stove", Location: "galley"}},
			"knife": {Entity: world.Entity{Name: "Paring Knife", Location: world.PlayerID}, Portable: true},
		},
		Locks: map[string]*world.Lock{
			"hatch": {Entity: world.Entity{Name: "Deck Hatch"}, Locked: true},
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

func TestHandleWait(t *testing.T) {
	m := New()
	out, err := m.Handlers()["handle_wait"](testContext(t, turn.Command{Verb: "wait"}))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.Message, "waiting narrates nothing itself")
}

func TestHandleLookAtRoom(t *testing.T) {
	m := New()
	out, err := m.Handlers()["handle_look"](testContext(t, turn.Command{Verb: "look"}))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "Galley")
	assert.Contains(t, out.Message, "Pots sway overhead.")
	assert.Contains(t, out.Message, "An exit leads aft.")
	assert.Contains(t, out.Message, "You see Ladle here.")
	assert.Contains(t, out.Message, "The Cook is here.")
	assert.NotContains(t, out.Message, "Paring Knife", "carried items aren't on the floor")
}

func TestHandleLookAtEntity(t *testing.T) {
	m := New()

	out, err := m.Handlers()["handle_look"](testContext(t, turn.Command{Verb: "look", Object: "stove"}))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "nothing remarkable")

	out, err = m.Handlers()["handle_look"](testContext(t, turn.Command{Verb: "look", Object: "unicorn"}))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "You see nothing like that here.", out.Message)
}

func TestHandleGo(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "go", Object: "aft"})

	out, err := m.Handlers()["handle_go"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "Mess Hall")
	assert.Equal(t, "mess", ctx.State.Player().Location)
}

func TestHandleGoBadDirection(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "go", Object: "starboard"})

	out, err := m.Handlers()["handle_go"](ctx)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "You can't go starboard from here.", out.Message)
	assert.Equal(t, "galley", ctx.State.Player().Location)
}

func TestHandleGoLockedDoor(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "go", Object: "up"})

	out, err := m.Handlers()["handle_go"](ctx)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "Deck Hatch is locked.", out.Message)
	assert.Equal(t, "galley", ctx.State.Player().Location)

	// Unlocking opens the way.
	ctx.State.Graph().Lock("hatch").Locked = false
	out, err = m.Handlers()["handle_go"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "deck", ctx.State.Player().Location)
}

func TestHandleTake(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "take", Object: "ladle"})

	out, err := m.Handlers()["handle_take"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "You take Ladle.", out.Message)
	assert.Equal(t, "player", ctx.State.Graph().Item("ladle").Location)
}

func TestHandleTakeRefusals(t *testing.T) {
	m := New()

	tests := []struct {
		name    string
		object  string
		wantMsg string
	}{
		{"not an item", "cook", "You see nothing like that here."},
		{"fixed in place", "stove", "Iron Stove won't budge."},
		{"already held", "knife", "Paring Knife isn't here."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext(t, turn.Command{Verb: "take", Object: tc.object})
			out, err := m.Handlers()["handle_take"](ctx)
			require.NoError(t, err)
			assert.False(t, out.Success)
			assert.Equal(t, tc.wantMsg, out.Message)
		})
	}
}

func TestHandleDrop(t *testing.T) {
	m := New()
	ctx := testContext(t, turn.Command{Verb: "drop", Object: "knife"})

	out, err := m.Handlers()["handle_drop"](ctx)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "You drop Paring Knife.", out.Message)
	assert.Equal(t, "galley", ctx.State.Graph().Item("knife").Location)

	out, err = m.Handlers()["handle_drop"](testContext(t, turn.Command{Verb: "drop", Object: "ladle"}))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "You aren't carrying that.", out.Message)
}

func TestHandleInventory(t *testing.T) {
	m := New()

	out, err := m.Handlers()["handle_inventory"](testContext(t, turn.Command{Verb: "inventory"}))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "You are carrying: Paring Knife.", out.Message)

	ctx := testContext(t, turn.Command{Verb: "inventory"})
	require.NoError(t, ctx.State.SetEntityWhere("knife", "galley"))
	out, err = m.Handlers()["handle_inventory"](ctx)
	require.NoError(t, err)
	assert.Equal(t, "You are carrying nothing.", out.Message)
}
