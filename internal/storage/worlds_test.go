package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorldJSON = `{
	"metadata": {"title": "Harbor Town", "start": "quay"},
	"locations": {"quay": {"name": "The Quay"}},
	"actors": {"player": {"location": "quay", "health": 10, "max_health": 10}}
}`

const sampleWorldLua = `
World { title = "The Reef", start = "shallows" }
Location "shallows" { name = "The Shallows" }
Actor "player" { location = "shallows", health = 10, max_health = 10 }
`

func setupDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "worlds"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sheets"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "worlds", "harbor.json"), []byte(sampleWorldJSON), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "worlds", "reef.lua"), []byte(sampleWorldLua), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "sheets", "player.json"),
		[]byte(`{"name": "Maren", "max_hp": 20, "ac": 12, "stats": {"strength": 11}}`), 0o644))
	return dir
}

func fsStorage(t *testing.T) *RedisStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	// Filesystem operations never touch Redis, so a dead address is fine.
	return NewRedisStorage("localhost:0", setupDataDir(t), logger)
}

func TestListWorlds(t *testing.T) {
	s := fsStorage(t)

	worlds, err := s.ListWorlds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Harbor Town": "harbor.json",
		"The Reef":    "reef.lua",
	}, worlds)
}

func TestGetWorldLua(t *testing.T) {
	s := fsStorage(t)

	doc, err := s.GetWorld(context.Background(), "reef.lua")
	require.NoError(t, err)
	assert.Equal(t, "The Reef", doc.Metadata.Title)
	assert.Contains(t, doc.Locations, "shallows")
}

func TestGetWorld(t *testing.T) {
	s := fsStorage(t)

	doc, err := s.GetWorld(context.Background(), "harbor.json")
	require.NoError(t, err)
	assert.Equal(t, "Harbor Town", doc.Metadata.Title)
	assert.Contains(t, doc.Locations, "quay")

	_, err = s.GetWorld(context.Background(), "atlantis.json")
	assert.ErrorContains(t, err, "world not found")
}

func TestGetSheet(t *testing.T) {
	s := fsStorage(t)

	sh, err := s.GetSheet(context.Background(), "player")
	require.NoError(t, err)
	assert.Equal(t, "player", sh.ID, "sheet id comes from the filename")
	assert.Equal(t, "Maren", sh.Name)
	assert.Equal(t, 20, sh.MaxHP)

	_, err = s.GetSheet(context.Background(), "nobody")
	assert.ErrorContains(t, err, "sheet not found")
}
