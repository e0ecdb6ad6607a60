// Package loader reads world documents from disk. Two authoring formats
// are supported: plain JSON documents, and a Lua DSL for hand-authored
// worlds where the declarative JSON gets unwieldy. Both compile to the
// same world.Document; structural validation happens later, when the
// graph is built.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/tbranagh/storyloom/pkg/world"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	metadata        *lua.LTable
	locations       []rawEntry
	actors          []rawEntry
	items           []rawEntry
	locks           []rawEntry
	parts           []rawEntry
	commitments     []rawEntry
	scheduledEvents []rawEntry
	gossip          []rawEntry
	spreads         []rawEntry
}

type rawEntry struct {
	id    string
	table *lua.LTable
}

// Read loads a world document from a file, dispatching on extension.
func Read(path string) (*world.Document, error) {
	switch filepath.Ext(path) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read world file: %w", err)
		}
		return world.ParseDocument(data)
	case ".lua":
		return ReadLua(path)
	default:
		return nil, fmt.Errorf("unsupported world file format: %s", filepath.Base(path))
	}
}

// ReadLua executes one Lua world file in a sandboxed VM and compiles the
// collected definitions into a document. The VM is discarded after
// loading.
func ReadLua(path string) (*world.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoString(string(data)); err != nil {
		return nil, fmt.Errorf("executing %s: %w", filepath.Base(path), err)
	}

	doc, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions. World files are data,
// not programs: they get no filesystem, no loading, and no raw access.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to preserve determinism.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
