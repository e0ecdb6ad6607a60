package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalDoc returns a valid world: one location, the player in it.
func minimalDoc() *Document {
	return &Document{
		Metadata: Metadata{Title: "Test World", Start: "cellar"},
		Locations: map[string]*Location{
			"cellar": {Entity: Entity{Name: "The Cellar"}},
		},
		Actors: map[string]*Actor{
			"player": {Entity: Entity{Name: "You", Location: "cellar"}, Health: 20, MaxHealth: 20},
		},
	}
}

func requireViolations(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
	return ve
}

func kinds(ve *ValidationError) []ViolationKind {
	out := make([]ViolationKind, len(ve.Violations))
	for i, v := range ve.Violations {
		out[i] = v.Kind
	}
	return out
}

func TestBuild_MinimalWorld(t *testing.T) {
	g, err := Build(minimalDoc())
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, "cellar", g.Metadata.Start)
	assert.Equal(t, "player", g.Player().ID)
	assert.Equal(t, KindActor, g.Player().Kind)
	assert.Equal(t, KindLocation, g.Location("cellar").Kind)

	e, ok := g.Lookup("player")
	require.True(t, ok)
	assert.Equal(t, "You", e.Name)
}

func TestBuild_DuplicateIDAcrossKinds(t *testing.T) {
	doc := minimalDoc()
	// An item sharing the player actor's id.
	doc.Items = map[string]*Item{
		"player": {Entity: Entity{Name: "Voodoo Doll", Location: "cellar"}},
	}

	g, err := Build(doc)
	assert.Nil(t, g)
	ve := requireViolations(t, err)

	require.Len(t, ve.Violations, 1)
	assert.Equal(t, ViolationDuplicateID, ve.Violations[0].Kind)
	assert.Contains(t, ve.Violations[0].Message, `"player"`)
}

func TestBuild_ReservedID(t *testing.T) {
	t.Run("non-actor uses player id", func(t *testing.T) {
		doc := minimalDoc()
		delete(doc.Actors, "player")
		doc.Actors["hero"] = &Actor{Entity: Entity{Location: "cellar"}}
		doc.Locations["player"] = &Location{Entity: Entity{Name: "Oops"}}

		_, err := Build(doc)
		ve := requireViolations(t, err)
		assert.Contains(t, kinds(ve), ViolationReservedID)
	})

	t.Run("missing player actor", func(t *testing.T) {
		doc := minimalDoc()
		delete(doc.Actors, "player")

		_, err := Build(doc)
		ve := requireViolations(t, err)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, ViolationReservedID, ve.Violations[0].Kind)
		assert.Contains(t, ve.Violations[0].Message, `"player"`)
	})
}

func TestBuild_DanglingReferences(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc *Document)
		wantIDs []string
	}{
		{
			name: "exit destination",
			mutate: func(doc *Document) {
				doc.Locations["cellar"].Exits = []Exit{
					{Direction: "north", Destination: "attic"},
				}
			},
			wantIDs: []string{"cellar", "attic"},
		},
		{
			name: "exit door lock",
			mutate: func(doc *Document) {
				doc.Locations["hall"] = &Location{}
				doc.Locations["cellar"].Exits = []Exit{
					{Direction: "north", Destination: "hall", Door: "iron_gate"},
				}
			},
			wantIDs: []string{"cellar", "iron_gate"},
		},
		{
			name: "actor location",
			mutate: func(doc *Document) {
				doc.Actors["ghost"] = &Actor{Entity: Entity{Location: "nowhere"}}
			},
			wantIDs: []string{"ghost", "nowhere"},
		},
		{
			name: "item container",
			mutate: func(doc *Document) {
				doc.Items = map[string]*Item{
					"coin": {Entity: Entity{Location: "lost_chest"}},
				}
			},
			wantIDs: []string{"coin", "lost_chest"},
		},
		{
			name: "lock key",
			mutate: func(doc *Document) {
				doc.Locks = map[string]*Lock{
					"gate": {Key: "missing_key", Locked: true},
				}
			},
			wantIDs: []string{"gate", "missing_key"},
		},
		{
			name: "part owner",
			mutate: func(doc *Document) {
				doc.Parts = map[string]*Part{
					"wheel": {Of: "ship"},
				}
			},
			wantIDs: []string{"wheel", "ship"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := minimalDoc()
			tc.mutate(doc)

			_, err := Build(doc)
			ve := requireViolations(t, err)
			require.Len(t, ve.Violations, 1)
			assert.Equal(t, ViolationDanglingRef, ve.Violations[0].Kind)
			assert.Equal(t, tc.wantIDs, ve.Violations[0].IDs)
		})
	}
}

func TestBuild_ItemInPlayerInventory(t *testing.T) {
	doc := minimalDoc()
	doc.Items = map[string]*Item{
		"lantern": {Entity: Entity{Location: "player"}, Portable: true},
	}

	g, err := Build(doc)
	require.NoError(t, err)

	held := g.ItemsIn("player")
	require.Len(t, held, 1)
	assert.Equal(t, "lantern", held[0].ID)
}

func TestBuild_ContainmentCycles(t *testing.T) {
	t.Run("self-loop", func(t *testing.T) {
		doc := minimalDoc()
		doc.Items = map[string]*Item{
			"bag": {Entity: Entity{Location: "bag"}},
		}

		_, err := Build(doc)
		ve := requireViolations(t, err)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, ViolationCycle, ve.Violations[0].Kind)
		assert.Equal(t, []string{"bag"}, ve.Violations[0].IDs)
	})

	t.Run("two-item cycle", func(t *testing.T) {
		doc := minimalDoc()
		doc.Items = map[string]*Item{
			"box":   {Entity: Entity{Location: "chest"}},
			"chest": {Entity: Entity{Location: "box"}},
		}

		_, err := Build(doc)
		ve := requireViolations(t, err)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, ViolationCycle, ve.Violations[0].Kind)
		assert.ElementsMatch(t, []string{"box", "chest"}, ve.Violations[0].IDs)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		doc := minimalDoc()
		doc.Items = map[string]*Item{
			"chest": {Entity: Entity{Location: "cellar"}},
			"tray":  {Entity: Entity{Location: "chest"}},
			"cup":   {Entity: Entity{Location: "chest"}},
			"note":  {Entity: Entity{Location: "tray"}},
		}

		_, err := Build(doc)
		require.NoError(t, err)
	})
}

func TestBuild_MissingStart(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		doc := minimalDoc()
		doc.Metadata.Start = ""

		_, err := Build(doc)
		ve := requireViolations(t, err)
		assert.Equal(t, []ViolationKind{ViolationMissingStart}, kinds(ve))
	})

	t.Run("undefined location", func(t *testing.T) {
		doc := minimalDoc()
		doc.Metadata.Start = "throne_room"

		_, err := Build(doc)
		ve := requireViolations(t, err)
		assert.Equal(t, []ViolationKind{ViolationMissingStart}, kinds(ve))
	})
}

func TestBuild_CollectsAllViolations(t *testing.T) {
	doc := minimalDoc()
	doc.Metadata.Start = "void"
	doc.Items = map[string]*Item{
		"player": {Entity: Entity{Location: "cellar"}}, // duplicate id
		"coin":   {Entity: Entity{Location: "coin"}},   // self-containment
	}
	doc.Actors["ghost"] = &Actor{Entity: Entity{Location: "limbo"}} // dangling

	_, err := Build(doc)
	ve := requireViolations(t, err)

	got := kinds(ve)
	assert.Contains(t, got, ViolationDuplicateID)
	assert.Contains(t, got, ViolationDanglingRef)
	assert.Contains(t, got, ViolationCycle)
	assert.Contains(t, got, ViolationMissingStart)
}

func TestBuild_VirtualEntities(t *testing.T) {
	doc := minimalDoc()
	doc.Commitments = map[string]*Entity{
		"meeting": {Name: "Dawn Meeting", Properties: map[string]any{"turn": 3.0}},
	}
	doc.Spreads = map[string]*Entity{
		"mold": {Name: "Creeping Mold", Location: "cellar"},
	}

	g, err := Build(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"meeting"}, g.VirtualIDs(KindCommitment))
	assert.Equal(t, KindCommitment, g.Commitments["meeting"].Kind)
	assert.Equal(t, KindSpread, g.Spreads["mold"].Kind)
	assert.True(t, g.Contains("mold"))
}

func TestGraph_Snapshot(t *testing.T) {
	g, err := Build(minimalDoc())
	require.NoError(t, err)

	// Mutate in place, then snapshot and rebuild.
	g.Player().Health = 7
	g.Player().SetProp("mood", "grim")

	snap := g.Snapshot()
	g2, err := Build(snap)
	require.NoError(t, err)

	assert.Equal(t, 7, g2.Player().Health)
	assert.Equal(t, "grim", g2.Player().PropString("mood"))
}
