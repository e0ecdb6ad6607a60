package behaviors

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbranagh/storyloom/pkg/condition"
	"github.com/tbranagh/storyloom/pkg/engine"
	"github.com/tbranagh/storyloom/pkg/state"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDefaultManifestRegistersCleanly(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"core", "visibility", "npcs", "environment", "conditions", "death",
	}, reg.Modules())
}

// Waiting while poisoned: the command itself does nothing, but the
// condition_tick phase deals the per-turn damage and the death_check
// phase notices when it finally kills you.
func TestWaitingWhilePoisoned(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Poison Run", Start: "cell"},
		Locations: map[string]*world.Location{
			"cell": {Entity: world.Entity{Name: "Stone Cell"}},
		},
		Actors: map[string]*world.Actor{
			"player": {Entity: world.Entity{Location: "cell"}, Health: 7, MaxHealth: 20},
		},
	})
	require.NoError(t, err)

	st := state.New(g)
	eng := condition.NewEngine(st, testLogger())
	_, err = eng.Apply("player", "poison", condition.Condition{
		Severity: 40, DamagePerTurn: condition.Int(3),
	})
	require.NoError(t, err)

	p := engine.New(reg, st, testLogger())

	result, err := p.Execute(turn.Command{Verb: "wait"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 4, st.Player().Health, "one tick of poison per turn")

	result, err = p.Execute(turn.Command{Verb: "wait"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Player().Health)

	// The third wait is fatal: condition_tick drops health to zero and
	// death_check, running after it, announces the death.
	result, err = p.Execute(turn.Command{Verb: "wait"})
	require.NoError(t, err)
	assert.Equal(t, 0, st.Player().Health)
	assert.True(t, st.Player().PropBool("dead"))
	assert.Contains(t, result.TurnPhaseMessages, "You have died.")
}

// A full little scene: step into a spreading sickness, catch it, walk
// out, treat it down, and watch it run its course.
func TestSpreadAndRecovery(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	g, err := world.Build(&world.Document{
		Metadata: world.Metadata{Title: "Marsh Crossing", Start: "marsh"},
		Locations: map[string]*world.Location{
			"marsh": {
				Entity: world.Entity{Name: "Sunken Marsh"},
				Exits:  []world.Exit{{Direction: "east", Destination: "ridge"}},
			},
			"ridge": {Entity: world.Entity{Name: "Dry Ridge"}},
		},
		Actors: map[string]*world.Actor{
			"player": {Entity: world.Entity{Location: "marsh"}, Health: 20, MaxHealth: 20},
		},
		Spreads: map[string]*world.Entity{
			"marsh_fever": {
				Location: "marsh",
				Properties: map[string]any{
					"condition":       "fever",
					"severity":        8,
					"damage_per_turn": 1,
				},
			},
		},
	})
	require.NoError(t, err)

	st := state.New(g)
	p := engine.New(reg, st, testLogger())
	eng := condition.NewEngine(st, testLogger())

	// Turn 1: waiting in the marsh contracts the fever.
	_, err = p.Execute(turn.Command{Verb: "wait"})
	require.NoError(t, err)
	c, present, err := eng.Get("player", "fever")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, 8, c.Severity)

	// Turn 2: leaving stops the exposure, but the fever ticks on.
	_, err = p.Execute(turn.Command{Verb: "go", Object: "east"})
	require.NoError(t, err)
	c, _, err = eng.Get("player", "fever")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Severity, "no further exposure on the ridge")

	// One treatment outweighs the remaining severity and clears it.
	result, err := p.Execute(turn.Command{Verb: "treat", Object: "fever"})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, present, err = eng.Get("player", "fever")
	require.NoError(t, err)
	assert.False(t, present)
	assert.True(t, st.Player().Health > 0)
}
