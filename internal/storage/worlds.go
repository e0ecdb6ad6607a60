package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/tbranagh/storyloom/internal/loader"
	"github.com/tbranagh/storyloom/pkg/sheet"
	"github.com/tbranagh/storyloom/pkg/world"
)

// World and sheet operations (filesystem-backed)

func (r *RedisStorage) ListWorlds(ctx context.Context) (map[string]string, error) {
	worldsDir := filepath.Join(r.dataDir, "worlds")
	worlds := make(map[string]string)

	err := filepath.WalkDir(worldsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".json" && ext != ".lua" {
			return nil
		}

		doc, err := loader.Read(path)
		if err != nil {
			r.logger.Warn("Failed to load world file", "path", path, "error", err)
			return nil
		}

		worlds[doc.Metadata.Title] = filepath.Base(path)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk worlds directory", "error", err)
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}

	return worlds, nil
}

func (r *RedisStorage) GetWorld(ctx context.Context, filename string) (*world.Document, error) {
	path := filepath.Join(r.dataDir, "worlds", filename)

	doc, err := loader.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("World file not found", "path", path)
			return nil, fmt.Errorf("world not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	return doc, nil
}

func (r *RedisStorage) GetSheet(ctx context.Context, name string) (*sheet.Sheet, error) {
	path := filepath.Join(r.dataDir, "sheets", name+".json")
	s, err := sheet.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("sheet not found: %s", name)
		}
		return nil, err
	}
	return s, nil
}
