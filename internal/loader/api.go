package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the Lua constructors as globals. Collection
// constructors are curried: Location "id" { ... } reads as a statement
// but is really Location("id")({...}).
func registerAPI(L *lua.LState, coll *collector) {
	// World { title = "...", start = "..." }
	L.SetGlobal("World", L.NewFunction(func(L *lua.LState) int {
		coll.metadata = L.CheckTable(1)
		return 0
	}))

	curried := func(dst *[]rawEntry) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				*dst = append(*dst, rawEntry{id: id, table: tbl})
				return 0
			}))
			return 1
		})
	}

	L.SetGlobal("Location", curried(&coll.locations))
	L.SetGlobal("Actor", curried(&coll.actors))
	L.SetGlobal("Item", curried(&coll.items))
	L.SetGlobal("Lock", curried(&coll.locks))
	L.SetGlobal("Part", curried(&coll.parts))
	L.SetGlobal("Commitment", curried(&coll.commitments))
	L.SetGlobal("ScheduledEvent", curried(&coll.scheduledEvents))
	L.SetGlobal("Gossip", curried(&coll.gossip))
	L.SetGlobal("Spread", curried(&coll.spreads))
}
