package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbranagh/storyloom/pkg/world"
)

func sampleSheet() *Sheet {
	return &Sheet{
		ID:    "player",
		Name:  "Maren Tholl",
		Class: "navigator",
		Level: 3,
		Stats: Stats{
			Strength: 10, Dexterity: 14, Constitution: 12,
			Intelligence: 15, Wisdom: 11, Charisma: 13,
		},
		HP:    18,
		MaxHP: 22,
		AC:    14,
		Attributes: map[string]int{
			"cartography": 4,
		},
	}
}

func TestBuildActor(t *testing.T) {
	s := sampleSheet()
	actor, err := s.BuildActor()
	require.NoError(t, err)

	assert.Equal(t, 18, actor.HP())
	assert.Equal(t, 22, actor.MaxHP())
	assert.Equal(t, 14, actor.AC())

	intel, ok := actor.Attribute("intelligence")
	require.True(t, ok)
	assert.Equal(t, 15, intel)
	skill, ok := actor.Attribute("cartography")
	require.True(t, ok)
	assert.Equal(t, 4, skill)
}

func TestBuildActorFullHP(t *testing.T) {
	s := sampleSheet()
	s.HP = 0 // unset means full

	actor, err := s.BuildActor()
	require.NoError(t, err)
	assert.Equal(t, 22, actor.HP())
}

func TestSeed(t *testing.T) {
	s := sampleSheet()
	actor := &world.Actor{Entity: world.Entity{Location: "quarterdeck"}}

	require.NoError(t, s.Seed(actor))
	assert.Equal(t, 18, actor.Health)
	assert.Equal(t, 22, actor.MaxHealth)
	assert.Equal(t, "Maren Tholl", actor.Name)
	assert.Equal(t, "quarterdeck", actor.Location, "seeding never moves the actor")

	stats := actor.SubMap("stats")
	require.NotNil(t, stats)
	assert.Equal(t, 14, stats["dexterity"])
	ac, ok := actor.PropInt("ac")
	require.True(t, ok)
	assert.Equal(t, 14, ac)
}

func TestSeedKeepsWorldName(t *testing.T) {
	s := sampleSheet()
	s.Name = ""
	actor := &world.Actor{Entity: world.Entity{Name: "The Stranger"}}

	require.NoError(t, s.Seed(actor))
	assert.Equal(t, "The Stranger", actor.Name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maren.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"id": "ignored",
		"name": "Maren Tholl",
		"class": "navigator",
		"stats": {"strength": 10, "dexterity": 14},
		"max_hp": 22,
		"ac": 14
	}`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "maren", s.ID, "filename wins over the embedded id")
	assert.Equal(t, "Maren Tholl", s.Name)
	assert.Equal(t, 14, s.Stats.Dexterity)
	assert.Equal(t, 22, s.MaxHP)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unmarshal")
}
